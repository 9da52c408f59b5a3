package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"hftgate/internal/chaos"
	"hftgate/internal/schema"
	"hftgate/internal/sim"
	"hftgate/internal/transport"
	"hftgate/pkg/uds"
)

func main() {
	socket := flag.String("socket", "/tmp/hftgate.sock", "Unix socket path to serve the device on")
	interval := flag.Duration("interval", sim.DefaultTickInterval, "Delay between ticks")
	limit := flag.Int("limit", 0, "Stop after N ticks (0=unlimited)")
	seed := flag.Int64("seed", 0, "Random seed (0=time based)")
	basePrice := flag.Uint("base-price", uint(sim.DefaultBasePrice), "Starting price in raw x100 units")
	maxStep := flag.Int("max-step", sim.DefaultMaxStep, "Max random walk step per tick")
	spikeEvery := flag.Int("spike-every", 0, "Inject a price spike every N ticks (0=disabled)")
	spikeSize := flag.Int("spike-size", sim.DefaultSpikeSize, "Spike size in raw x100 units")
	signalEvery := flag.Int("signal-every", sim.DefaultSignalEvery, "Raise the execute signal every N ticks (0=disabled)")
	dropRate := flag.Float64("drop", 0, "Frame drop rate (0..1)")
	dupRate := flag.Float64("dup", 0, "Frame duplicate rate (0..1)")
	garbageRate := flag.Float64("garbage", 0, "Noise injection rate before a frame (0..1)")
	reorder := flag.Int("reorder", 1, "Reorder window in frames (1=off)")
	echoLog := flag.Bool("echo-log", false, "Log every feedback echo received from the engine")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-sys.Shutdown():
			stop()
		case <-ctx.Done():
		}
	}()

	chaosCfg := chaos.Config{
		Seed:          *seed,
		DropRate:      *dropRate,
		DuplicateRate: *dupRate,
		GarbageRate:   *garbageRate,
		ReorderWindow: *reorder,
	}
	var chaosEngine *chaos.Engine
	if chaosCfg.Enabled() {
		var err error
		chaosEngine, err = chaos.NewEngine(chaosCfg)
		if err != nil {
			log.Fatalf("chaos config invalid: %v", err)
		}
	}

	server, err := uds.NewServer(*socket)
	if err != nil {
		log.Fatalf("uds server: %v", err)
	}
	if err := server.Listen(); err != nil {
		log.Fatalf("uds listen: %v", err)
	}
	defer func() {
		_ = server.Close()
	}()
	logs.Infof("simulator listening, socket: %s (engine: -port unix:%s)", server.Path(), server.Path())

	conn, err := server.Accept(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Fatalf("uds accept: %v", err)
	}
	link := transport.NewConnLink(conn, 50*time.Millisecond, 100*time.Millisecond)
	defer func() {
		_ = link.Close()
	}()

	gen := sim.NewGenerator(sim.GeneratorConfig{
		Seed:        *seed,
		BasePrice:   schema.Price(*basePrice),
		MaxStep:     *maxStep,
		SpikeEvery:  *spikeEvery,
		SpikeSize:   *spikeSize,
		SignalEvery: *signalEvery,
	})
	device, err := sim.NewDevice(sim.DeviceConfig{TickInterval: *interval, Limit: *limit}, link, gen, chaosEngine)
	if err != nil {
		log.Fatalf("device: %v", err)
	}

	if *echoLog {
		device.OnFeedback(func(p schema.Price) {
			logs.Infof("feedback echo, price: $%s", p)
		})
	}

	go reportProgress(ctx, device)

	logs.Info("--- device simulator active ---")
	if err := device.Run(ctx); err != nil {
		logs.Errorf("device stopped, sent: %d, feedback: %d, err: %+v", device.Sent(), device.Feedbacks(), err)
		return
	}
	logs.Infof("device finished, sent: %d, feedback: %d, last echo: $%s", device.Sent(), device.Feedbacks(), device.LastEcho())
}

func reportProgress(ctx context.Context, device *sim.Device) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logs.Infof("device progress, sent: %d, feedback: %d, last echo: $%s", device.Sent(), device.Feedbacks(), device.LastEcho())
		}
	}
}
