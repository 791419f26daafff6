// ftx-stream/pkg/ftx/config.go
package ftx

import (
	"fmt"
	"time"
)

// Фиксированные региональные эндпоинты. Схема сообщений у обоих одинаковая.
const (
	Endpoint   = "wss://ftx.com/ws"
	EndpointUS = "wss://ftx.us/ws"
)

// Config holds WebSocket session configuration for the FTX client.
type Config struct {
	URL        string `mapstructure:"ws_url"`
	Key        string `mapstructure:"key"`
	Secret     string `mapstructure:"secret"`
	Subaccount string `mapstructure:"subaccount"`

	// PingInterval — период keepalive-пинга; сервер рвёт простаивающие
	// соединения, поэтому ноль заменяется дефолтом.
	PingInterval time.Duration `mapstructure:"ping_interval"`

	// BufferSize — ёмкость канала между reader-горутиной и циклом сессии.
	BufferSize int `mapstructure:"buffer_size"`

	// ConfirmWindow — сколько входящих сообщений сканировать в ожидании
	// подтверждения subscribe/unsubscribe, прежде чем сдаться.
	ConfirmWindow int `mapstructure:"confirm_window"`
}

// ApplyDefaults applies fallback defaults if values are unset.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = Endpoint
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 15 * time.Second
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 100
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = 100
	}
}

// Validate checks config for required fields.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("ftx: URL is required")
	}
	return nil
}
