package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	Host              string        `env:"HOST,default=localhost" validate:"required"`
	Port              int           `env:"PORT,default=8080" validate:"gte=0,lte=65535"`
	Topic             string        `env:"TOPIC"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	ReadLimit         int64         `env:"READ_LIMIT,default=65536" validate:"gt=0"`
	PongTimeout       time.Duration `env:"PONG_TIMEOUT,default=60s" validate:"gte=0"`
	PingInterval      time.Duration `env:"PING_INTERVAL,default=25s" validate:"gte=0"`
	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE,default=256" validate:"gt=0"`
	CommandBufferSize int           `env:"COMMAND_BUFFER_SIZE,default=16" validate:"gt=0"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH"`
	P2PListenAddrs    string        `env:"P2P_LISTEN_ADDRS,default=/ip4/0.0.0.0/tcp/0"`
	MDNSServiceTag    string        `env:"MDNS_SERVICE_TAG,default=swarm-relay"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=0s" validate:"gte=0"`
	HealthPort        int           `env:"HEALTH_PORT,default=0" validate:"gte=0,lte=65535"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
}

var validate = validator.New()

// loadConfig reads .env (when present) then the environment.
func loadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.PongTimeout > 0 && c.PingInterval >= c.PongTimeout {
		return fmt.Errorf("invalid config: PING_INTERVAL (%s) must be shorter than PONG_TIMEOUT (%s)",
			c.PingInterval, c.PongTimeout)
	}
	return nil
}

func (c Config) ListenAddrs() []string {
	return lo.Compact(lo.Map(strings.Split(c.P2PListenAddrs, ","), func(addr string, _ int) string {
		return strings.TrimSpace(addr)
	}))
}
