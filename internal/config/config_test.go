// ftx-stream/internal/config/config_test.go
package config

import (
	"strings"
	"testing"

	"github.com/YaganovValera/ftx-stream/pkg/ftx"
)

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv("FTX_STREAM_KAFKA_BROKERS", "localhost:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceName != "ftx-collector" {
		t.Errorf("service_name = %q", cfg.ServiceName)
	}
	if cfg.FTX.Region != "com" {
		t.Errorf("ftx.region = %q", cfg.FTX.Region)
	}
	if got := cfg.FTX.URL(); got != ftx.Endpoint {
		t.Errorf("URL() = %q, want %q", got, ftx.Endpoint)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("kafka.brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_EnvOnlyCredentials(t *testing.T) {
	// Ключи без дефолтов обязаны подхватываться из окружения без
	// конфиг-файла.
	t.Setenv("FTX_STREAM_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("FTX_STREAM_FTX_KEY", "env-key")
	t.Setenv("FTX_STREAM_FTX_SECRET", "env-secret")
	t.Setenv("FTX_STREAM_FTX_SUBACCOUNT", "env-sub")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("kafka.brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.FTX.Key != "env-key" || cfg.FTX.Secret != "env-secret" || cfg.FTX.Subaccount != "env-sub" {
		t.Errorf("ftx credentials = %+v", cfg.FTX)
	}
}

func TestLoad_MissingBrokersFails(t *testing.T) {
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "kafka.brokers") {
		t.Fatalf("expected kafka.brokers error, got %v", err)
	}
}

func TestLoad_USRegionEndpoint(t *testing.T) {
	t.Setenv("FTX_STREAM_KAFKA_BROKERS", "localhost:9092")
	t.Setenv("FTX_STREAM_FTX_REGION", "us")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.FTX.URL(); got != ftx.EndpointUS {
		t.Errorf("URL() = %q, want %q", got, ftx.EndpointUS)
	}
}

func TestLoad_FillsRequireCredentials(t *testing.T) {
	t.Setenv("FTX_STREAM_KAFKA_BROKERS", "localhost:9092")
	t.Setenv("FTX_STREAM_FTX_CHANNELS", "fills")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "ftx.key") {
		t.Fatalf("expected credentials error, got %v", err)
	}

	t.Setenv("FTX_STREAM_FTX_KEY", "k")
	t.Setenv("FTX_STREAM_FTX_SECRET", "s")
	if _, err := Load(""); err != nil {
		t.Fatalf("Load with credentials: %v", err)
	}
}

func TestParseChannels(t *testing.T) {
	f := FTXConfig{Channels: []string{"trades:BTC-PERP", "orderbook:ETH-PERP", "fills"}}
	channels, err := f.ParseChannels()
	if err != nil {
		t.Fatalf("ParseChannels: %v", err)
	}
	want := []ftx.Channel{ftx.Trades("BTC-PERP"), ftx.Orderbook("ETH-PERP"), ftx.Fills()}
	if len(channels) != len(want) {
		t.Fatalf("got %d channels, want %d", len(channels), len(want))
	}
	for i := range want {
		if channels[i] != want[i] {
			t.Errorf("channel %d = %v, want %v", i, channels[i], want[i])
		}
	}
}

func TestParseChannels_Invalid(t *testing.T) {
	cases := []string{"trades", "candles:BTC-PERP", "fills:BTC-PERP"}
	for _, raw := range cases {
		f := FTXConfig{Channels: []string{raw}}
		if _, err := f.ParseChannels(); err == nil {
			t.Errorf("entry %q: expected error, got nil", raw)
		}
	}
}
