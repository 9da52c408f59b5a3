package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"hftgate/internal/engine"
	"hftgate/internal/ingest"
	"hftgate/internal/journal"
	"hftgate/internal/market"
	"hftgate/internal/obs"
	"hftgate/internal/ops"
	"hftgate/internal/report"
	"hftgate/internal/risk"
	"hftgate/internal/strategy"
	"hftgate/internal/transport"
	"hftgate/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (defaults apply when empty)")
	port := flag.String("port", "", "Transport address: serial device or unix:<socket path>")
	baud := flag.Int("baud", 0, "Serial baud rate (0=config value)")
	threshold := flag.Float64("threshold", 0, "Volatility trip threshold in raw price units (0=config value)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address, e.g. :9100 (empty=disabled)")
	journalDSN := flag.String("journal-dsn", "", "PostgreSQL DSN for the event journal (empty=config value)")
	profile := flag.String("profile", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	loaded, err := ops.Load(*configPath, ops.Overrides{
		Address:     *port,
		BaudRate:    *baud,
		Threshold:   *threshold,
		MetricsAddr: *metricsAddr,
		JournalDSN:  *journalDSN,
	})
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	os.Exit(run(loaded, *profile))
}

func run(cfg ops.Loaded, profileAddr string) int {
	if profileAddr != "" {
		stopProfiler, err := obs.StartProfiler("hftgate/engine", profileAddr)
		if err != nil {
			logs.Errorf("profiler start failed, err: %+v", err)
			return 1
		}
		defer stopProfiler()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-sys.Shutdown():
			stop()
		case <-ctx.Done():
		}
	}()

	link, err := transport.Open(ctx, cfg.Transport)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection Error: %v\n", err)
		return 1
	}

	logs.Infof("system initializing (waiting for hardware), address: %s, warmup: %s", cfg.Transport.Address, cfg.Warmup)
	select {
	case <-ctx.Done():
		_ = link.Close()
		logs.Info("emergency stop: shutting down engine")
		return 0
	case <-time.After(cfg.Warmup):
	}

	metrics := obs.NewMetrics()
	slot := market.NewSlot()
	reporters := report.Multi{
		report.NewConsole(os.Stdout, cfg.Instrument),
		report.Log{},
		metrics,
	}

	var jr *journal.Journal
	if cfg.Journal.Enabled {
		var closeDB func()
		jr, closeDB, err = openJournal(ctx, cfg.Journal, metrics)
		if err != nil {
			_ = link.Close()
			logs.Errorf("journal setup failed, err: %+v", err)
			return 1
		}
		defer closeDB()
		reporters = append(reporters, jr)
	}

	decoder, err := ingest.NewDecoder(link, slot, ingest.WithMetrics(metrics))
	if err != nil {
		_ = link.Close()
		logs.Errorf("decoder setup failed, err: %+v", err)
		return 1
	}
	loop, err := strategy.NewLoop(cfg.Strategy, strategy.Deps{
		State:    slot,
		Breaker:  risk.NewBreaker(cfg.Breaker),
		Feedback: link,
		Risk:     risk.NewEngine(cfg.Risk),
		Reporter: reporters,
		Metrics:  metrics,
	})
	if err != nil {
		_ = link.Close()
		logs.Errorf("strategy setup failed, err: %+v", err)
		return 1
	}
	eng, err := engine.New(link, decoder, loop)
	if err != nil {
		_ = link.Close()
		logs.Errorf("engine setup failed, err: %+v", err)
		return 1
	}
	if jr != nil {
		eng.WithJournal(jr)
	}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logs.Infof("engine active, threshold: %.2f, instrument: %s", cfg.Breaker.Threshold, cfg.Instrument)
	err = eng.Run(ctx)
	fmt.Fprintln(os.Stdout)
	if err != nil {
		h := eng.Health()
		logs.Errorf("engine stopped, ingest: %s, strategy: %s, err: %+v", h.Ingest.State, h.Strategy.State, err)
		return 1
	}
	logs.Info("emergency stop: shutting down engine")
	if last, ok := loop.LastFill(); ok {
		logs.Infof("session summary, fills: %d, position: %s, last fill: #%d $%s", loop.Fills(), loop.Position(), last.Seq, last.Price)
	} else {
		logs.Infof("session summary, fills: 0, position: %s", loop.Position())
	}
	return 0
}

func openJournal(ctx context.Context, cfg ops.Journal, metrics *obs.Metrics) (*journal.Journal, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := conn.New(dialCtx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := client.Close(); err != nil {
			logs.Errorf("close journal db, err: %+v", err)
		}
	}
	store, err := journal.NewGormStore(client.DB())
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	if err := store.Migrate(dialCtx); err != nil {
		closeDB()
		return nil, nil, err
	}
	jr, err := journal.New(store, cfg.QueueSize, metrics)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	logs.Infof("journal enabled, db: %s", cfg.Postgres.Redacted())
	return jr, closeDB, nil
}

func serveMetrics(addr string, metrics *obs.Metrics) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		obs.NewCollector(metrics),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("metrics server stopped, addr: %s, err: %+v", addr, err)
		}
	}()
	logs.Infof("metrics listening, addr: %s", addr)
	return srv
}
