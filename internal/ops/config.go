package ops

import (
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"hftgate/internal/risk"
	"hftgate/internal/schema"
	"hftgate/internal/strategy"
	"hftgate/internal/transport"
	"hftgate/pkg/conn"
)

var validate = validator.New()

// FileConfig mirrors the JSON config layout. Durations and decimals are
// strings so the file stays human-editable.
type FileConfig struct {
	Transport TransportConfig `json:"transport"`
	Breaker   BreakerConfig   `json:"breaker"`
	Strategy  StrategyConfig  `json:"strategy"`
	Risk      RiskConfig      `json:"risk"`
	Journal   JournalConfig   `json:"journal"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// TransportConfig identifies the hardware channel.
type TransportConfig struct {
	Address      string `json:"address" default:"COM8" validate:"required"`
	BaudRate     int    `json:"baudRate" default:"2000000" validate:"gt=0"`
	ReadTimeout  string `json:"readTimeout" default:"100ms"`
	WriteTimeout string `json:"writeTimeout" default:"100ms"`
	Warmup       string `json:"warmup" default:"2s"`
}

// BreakerConfig tunes the circuit breaker hysteresis.
type BreakerConfig struct {
	Threshold  float64 `json:"threshold" default:"35" validate:"gt=0"`
	ResetRatio float64 `json:"resetRatio" default:"0.5" validate:"gt=0,lte=1"`
	Cooldown   string  `json:"cooldown" default:"5s"`
}

// StrategyConfig tunes the consumer loop.
type StrategyConfig struct {
	PollInterval  string  `json:"pollInterval" default:"1ms"`
	VolatileLevel float64 `json:"volatileLevel" default:"15" validate:"gt=0"`
	FillQty       string  `json:"fillQty" default:"0.1"`
	Instrument    string  `json:"instrument" default:"BTC" validate:"required"`
}

// RiskConfig holds limits applied on top of the breaker.
type RiskConfig struct {
	KillSwitch  bool   `json:"killSwitch"`
	MaxPosition string `json:"maxPosition"`
}

// JournalConfig enables event persistence when DSN or Host is set.
type JournalConfig struct {
	DSN       string `json:"dsn"`
	Host      string `json:"host"`
	Port      int    `json:"port" validate:"gte=0,lte=65535"`
	User      string `json:"user"`
	Password  string `json:"password"`
	Database  string `json:"database"`
	SSLMode   string `json:"sslMode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	QueueSize int    `json:"queueSize" default:"1024" validate:"gt=0"`
}

// MetricsConfig enables the Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `json:"addr" validate:"omitempty,hostname_port"`
}

// Overrides carry command-line values; zero values leave the file untouched.
type Overrides struct {
	Address     string
	BaudRate    int
	Threshold   float64
	MetricsAddr string
	JournalDSN  string
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Transport  transport.Config
	Warmup     time.Duration
	Breaker    risk.BreakerConfig
	Risk       risk.Config
	Strategy   strategy.Config
	Instrument string
	Journal    Journal
	Metrics    MetricsConfig
}

// Journal is the resolved persistence setting.
type Journal struct {
	Enabled   bool
	Postgres  conn.Option
	QueueSize int
}

// Load reads the JSON file at path, or starts from defaults when path is
// empty, applies overrides, and resolves the result.
func Load(path string, ov Overrides) (Loaded, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "read config").With("path", path)
		}
		if err := sonic.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, errors.Wrap(err, "unmarshal config").With("path", path)
		}
	}
	return Resolve(cfg, ov)
}

// Resolve applies defaults and overrides to cfg, validates it and converts
// it into runtime types.
func Resolve(cfg FileConfig, ov Overrides) (Loaded, error) {
	if err := defaults.Set(&cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "set config defaults")
	}
	applyOverrides(&cfg, ov)
	if err := validate.Struct(cfg); err != nil {
		return Loaded{}, invalid(err)
	}

	var (
		loaded Loaded
		err    error
	)
	if loaded.Transport, loaded.Warmup, err = resolveTransport(cfg.Transport); err != nil {
		return Loaded{}, err
	}
	if loaded.Breaker, err = resolveBreaker(cfg.Breaker); err != nil {
		return Loaded{}, err
	}
	if loaded.Strategy, err = resolveStrategy(cfg.Strategy); err != nil {
		return Loaded{}, err
	}
	if loaded.Risk, err = resolveRisk(cfg.Risk); err != nil {
		return Loaded{}, err
	}
	loaded.Instrument = cfg.Strategy.Instrument
	loaded.Journal = resolveJournal(cfg.Journal)
	loaded.Metrics = cfg.Metrics
	return loaded, nil
}

func applyOverrides(cfg *FileConfig, ov Overrides) {
	if ov.Address != "" {
		cfg.Transport.Address = ov.Address
	}
	if ov.BaudRate != 0 {
		cfg.Transport.BaudRate = ov.BaudRate
	}
	if ov.Threshold != 0 {
		cfg.Breaker.Threshold = ov.Threshold
	}
	if ov.MetricsAddr != "" {
		cfg.Metrics.Addr = ov.MetricsAddr
	}
	if ov.JournalDSN != "" {
		cfg.Journal.DSN = ov.JournalDSN
	}
}

func resolveTransport(cfg TransportConfig) (transport.Config, time.Duration, error) {
	readTimeout, err := parseDuration("transport.readTimeout", cfg.ReadTimeout)
	if err != nil {
		return transport.Config{}, 0, err
	}
	writeTimeout, err := parseDuration("transport.writeTimeout", cfg.WriteTimeout)
	if err != nil {
		return transport.Config{}, 0, err
	}
	warmup, err := parseDuration("transport.warmup", cfg.Warmup)
	if err != nil {
		return transport.Config{}, 0, err
	}
	return transport.Config{
		Address:      cfg.Address,
		BaudRate:     cfg.BaudRate,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}, warmup, nil
}

func resolveBreaker(cfg BreakerConfig) (risk.BreakerConfig, error) {
	cooldown, err := parseDuration("breaker.cooldown", cfg.Cooldown)
	if err != nil {
		return risk.BreakerConfig{}, err
	}
	return risk.BreakerConfig{
		Threshold:  cfg.Threshold,
		ResetRatio: cfg.ResetRatio,
		Cooldown:   cooldown,
	}, nil
}

func resolveStrategy(cfg StrategyConfig) (strategy.Config, error) {
	poll, err := parseDuration("strategy.pollInterval", cfg.PollInterval)
	if err != nil {
		return strategy.Config{}, err
	}
	qty, err := parseQuantity("strategy.fillQty", cfg.FillQty)
	if err != nil {
		return strategy.Config{}, err
	}
	if qty <= 0 {
		return strategy.Config{}, invalid(errors.Errorf("strategy.fillQty must be positive, got %s", cfg.FillQty))
	}
	return strategy.Config{
		PollInterval:  poll,
		VolatileLevel: cfg.VolatileLevel,
		FillQty:       qty,
	}, nil
}

func resolveRisk(cfg RiskConfig) (risk.Config, error) {
	out := risk.Config{KillSwitch: cfg.KillSwitch}
	if cfg.MaxPosition == "" {
		return out, nil
	}
	limit, err := parseQuantity("risk.maxPosition", cfg.MaxPosition)
	if err != nil {
		return risk.Config{}, err
	}
	out.MaxPosition = limit
	return out, nil
}

func resolveJournal(cfg JournalConfig) Journal {
	return Journal{
		Enabled: cfg.DSN != "" || cfg.Host != "",
		Postgres: conn.Option{
			ConnString: cfg.DSN,
			Host:       cfg.Host,
			Port:       cfg.Port,
			User:       cfg.User,
			Password:   cfg.Password,
			Database:   cfg.Database,
			SSLMode:    cfg.SSLMode,
		},
		QueueSize: cfg.QueueSize,
	}
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, invalid(errors.Wrap(err, "parse duration").With("field", field))
	}
	if d <= 0 {
		return 0, invalid(errors.Errorf("%s must be positive, got %s", field, value))
	}
	return d, nil
}

func parseQuantity(field, value string) (schema.Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, invalid(errors.Wrap(err, "parse decimal").With("field", field))
	}
	if d.IsNegative() {
		return 0, invalid(errors.Errorf("%s must not be negative, got %s", field, value))
	}
	return schema.QuantityFromDecimal(d), nil
}
