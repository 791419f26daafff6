// ftx-stream/internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/YaganovValera/ftx-stream/pkg/backoff"
	"github.com/YaganovValera/ftx-stream/pkg/ftx"
)

/*
   --------------------------------------------------------------------------
   СТРУКТУРЫ
   --------------------------------------------------------------------------
*/

// Config — все настройки сервиса.
type Config struct {
	ServiceName    string      `mapstructure:"service_name"`
	ServiceVersion string      `mapstructure:"service_version"`
	FTX            FTXConfig   `mapstructure:"ftx"`
	Kafka          KafkaConfig `mapstructure:"kafka"`
	Telemetry      Telemetry   `mapstructure:"telemetry"`
	Logging        Logging     `mapstructure:"logging"`
	HTTP           HTTPConfig  `mapstructure:"http"`
}

// FTXConfig хранит настройки WS-сессии FTX.
type FTXConfig struct {
	// Region выбирает региональный эндпоинт: com | us.
	Region string `mapstructure:"region"`
	// Пустые Key/Secret — доступны только публичные каналы.
	Key        string `mapstructure:"key"`
	Secret     string `mapstructure:"secret"`
	Subaccount string `mapstructure:"subaccount"`
	// Channels — записи вида "trades:BTC-PERP" или "fills".
	Channels      []string       `mapstructure:"channels"`
	PingInterval  time.Duration  `mapstructure:"ping_interval"`
	BufferSize    int            `mapstructure:"buffer_size"`
	ConfirmWindow int            `mapstructure:"confirm_window"`
	Backoff       backoff.Config `mapstructure:"backoff"`
}

// KafkaConfig хранит настройки Kafka.
type KafkaConfig struct {
	Brokers        []string       `mapstructure:"brokers"`
	TradesTopic    string         `mapstructure:"trades_topic"`
	OrderBookTopic string         `mapstructure:"orderbook_topic"`
	FillsTopic     string         `mapstructure:"fills_topic"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	Acks           string         `mapstructure:"acks"`
	Compression    string         `mapstructure:"compression"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency"`
	FlushMessages  int            `mapstructure:"flush_messages"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

// Telemetry хранит настройки OpenTelemetry.
type Telemetry struct {
	OTLPEndpoint string `mapstructure:"otel_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// Logging хранит настройки логгера.
type Logging struct {
	Level   string `mapstructure:"level"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// HTTPConfig хранит конфигурацию HTTP-/metrics-сервера.
type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path"`
	HealthzPath     string        `mapstructure:"healthz_path"`
	ReadyzPath      string        `mapstructure:"readyz_path"`
}

/*
   --------------------------------------------------------------------------
   LOADER
   --------------------------------------------------------------------------
*/

// Load загружает и валидирует конфиг. Если path пустой — читаются только ENV и defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ---------- 1) Defaults ----------
	v.SetDefault("service_name", "ftx-collector")
	v.SetDefault("service_version", "v1.0.0")

	// FTX
	// AutomaticEnv подхватывает только зарегистрированные ключи, поэтому
	// обязательные поля без осмысленного дефолта регистрируются пустыми.
	v.SetDefault("ftx.region", "com")
	v.SetDefault("ftx.key", "")
	v.SetDefault("ftx.secret", "")
	v.SetDefault("ftx.subaccount", "")
	v.SetDefault("ftx.channels", []string{"trades:BTC-PERP"})
	v.SetDefault("ftx.ping_interval", "15s")
	v.SetDefault("ftx.buffer_size", 100)
	v.SetDefault("ftx.confirm_window", 100)

	// Kafka
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.trades_topic", "ftx.trades")
	v.SetDefault("kafka.orderbook_topic", "ftx.orderbook")
	v.SetDefault("kafka.fills_topic", "ftx.fills")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.timeout", "15s")
	v.SetDefault("kafka.compression", "none")
	v.SetDefault("kafka.flush_frequency", "0s")
	v.SetDefault("kafka.flush_messages", 0)

	// Telemetry
	v.SetDefault("telemetry.otel_endpoint", "otel-collector:4317")
	v.SetDefault("telemetry.insecure", false)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)

	// HTTP
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("http.metrics_path", "/metrics")
	v.SetDefault("http.healthz_path", "/healthz")
	v.SetDefault("http.readyz_path", "/readyz")

	// ---------- 2) ENV ----------
	v.SetEnvPrefix("FTX_STREAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ---------- 3) Optional file ----------
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", v.ConfigFileUsed(), err)
		}
	}

	// ---------- 4) Decode ----------
	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToBoolHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ---------- 5) Validation ----------
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// stringToBoolHook разбирает true/false, иначе отдает исходные данные.
func stringToBoolHook(f, t reflect.Kind, data interface{}) (interface{}, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

/*
   --------------------------------------------------------------------------
   VALIDATION
   --------------------------------------------------------------------------
*/

func (c *Config) Validate() error {
	// Service
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}

	// FTX
	switch strings.ToLower(c.FTX.Region) {
	case "com", "us":
	default:
		return fmt.Errorf("ftx.region must be one of [com, us]")
	}
	if len(c.FTX.Channels) == 0 {
		return fmt.Errorf("ftx.channels must contain at least one entry")
	}
	channels, err := c.FTX.ParseChannels()
	if err != nil {
		return err
	}
	for _, ch := range channels {
		// Приватные каналы без ключа не заработают — ловим на старте.
		if ch.Kind == ftx.ChannelFills && (c.FTX.Key == "" || c.FTX.Secret == "") {
			return fmt.Errorf("ftx.channels: %q requires ftx.key and ftx.secret", ch)
		}
	}
	if c.FTX.PingInterval <= 0 {
		return fmt.Errorf("ftx.ping_interval must be > 0")
	}
	if c.FTX.BufferSize <= 0 {
		return fmt.Errorf("ftx.buffer_size must be > 0")
	}
	if c.FTX.ConfirmWindow <= 0 {
		return fmt.Errorf("ftx.confirm_window must be > 0")
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Kafka.TradesTopic == "" || c.Kafka.OrderBookTopic == "" || c.Kafka.FillsTopic == "" {
		return fmt.Errorf("kafka.trades_topic, kafka.orderbook_topic and kafka.fills_topic are required")
	}
	switch strings.ToLower(c.Kafka.Acks) {
	case "all", "leader", "none":
	default:
		return fmt.Errorf("kafka.acks must be one of [all, leader, none]")
	}
	switch strings.ToLower(c.Kafka.Compression) {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("kafka.compression must be one of [none, gzip, snappy, lz4, zstd]")
	}

	// Telemetry
	if c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otel_endpoint is required")
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error]")
	}

	// HTTP
	if err := validateHTTP(&c.HTTP); err != nil {
		return err
	}

	return nil
}

func validateHTTP(h *HTTPConfig) error {
	if h.Port <= 0 || h.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}
	durations := map[string]time.Duration{
		"http.read_timeout":     h.ReadTimeout,
		"http.write_timeout":    h.WriteTimeout,
		"http.idle_timeout":     h.IdleTimeout,
		"http.shutdown_timeout": h.ShutdownTimeout,
	}
	for k, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", k)
		}
	}
	paths := map[string]string{
		"http.metrics_path": h.MetricsPath,
		"http.healthz_path": h.HealthzPath,
		"http.readyz_path":  h.ReadyzPath,
	}
	for k, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/'", k)
		}
	}
	return nil
}

/*
   --------------------------------------------------------------------------
   HELPERS
   --------------------------------------------------------------------------
*/

// URL отдаёт WS-endpoint для выбранного региона.
func (f *FTXConfig) URL() string {
	if strings.EqualFold(f.Region, "us") {
		return ftx.EndpointUS
	}
	return ftx.Endpoint
}

// ParseChannels разбирает записи вида "kind:MARKET" (или "kind" для
// account-scoped каналов) в типизированные дескрипторы.
func (f *FTXConfig) ParseChannels() ([]ftx.Channel, error) {
	out := make([]ftx.Channel, 0, len(f.Channels))
	for _, raw := range f.Channels {
		kind, market, _ := strings.Cut(raw, ":")
		ch := ftx.Channel{Kind: ftx.ChannelKind(strings.ToLower(strings.TrimSpace(kind))), Market: strings.TrimSpace(market)}
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("ftx.channels: entry %q: %w", raw, err)
		}
		out = append(out, ch)
	}
	return out, nil
}

/*
   --------------------------------------------------------------------------
   DEBUG PRINT
   --------------------------------------------------------------------------
*/

// Print выводит текущий конфиг в JSON (удобно в DevMode).
func (c *Config) Print() {
	b, _ := json.MarshalIndent(c, "", "  ")
	fmt.Println("Loaded configuration:\n", string(b))
}
