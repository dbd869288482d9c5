package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// GRPC: инспекционный сервис. Пустой addr выключает его.
type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // board-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type WS struct {
	PingEvery    time.Duration `yaml:"pingEvery"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	ReadLimit    int64         `yaml:"readLimit"`  // байт на кадр
	SendBuffer   int           `yaml:"sendBuffer"` // исходящая очередь сессии
}

type Rooms struct {
	ReapAfter     time.Duration `yaml:"reapAfter"` // 0: комнаты живут вечно
	ReapEvery     time.Duration `yaml:"reapEvery"`
	ValidateKinds bool          `yaml:"validateKinds"`
}

// Postgres нужен только журналу активности. Пустой DSN выключает журнал.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"maxConns"`
	MinConns        int32         `yaml:"minConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime"`
	ApplicationName string        `yaml:"applicationName"`
}

type Journal struct {
	Buffer     int           `yaml:"buffer"`
	BatchSize  int           `yaml:"batchSize"`
	FlushEvery time.Duration `yaml:"flushEvery"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	WS       WS       `yaml:"ws"`
	Rooms    Rooms    `yaml:"rooms"`
	Postgres Postgres `yaml:"postgres"`
	Journal  Journal  `yaml:"journal"`
}

func (c *Config) JournalEnabled() bool { return c.Postgres.DSN != "" }

// LoadConfig читает YAML из CONFIG_PATH (по умолчанию ./config/config.yaml).
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.WS.ReadLimit < 0 || c.WS.SendBuffer < 0 {
		return errors.New("ws.readLimit and ws.sendBuffer must be >= 0")
	}
	if c.Rooms.ReapAfter < 0 {
		return errors.New("rooms.reapAfter must be >= 0")
	}

	// установка дефолтов, если значения не указаны
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "board-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.WS.PingEvery == 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	if c.WS.WriteTimeout == 0 {
		c.WS.WriteTimeout = 5 * time.Second
	}
	if c.WS.ReadLimit == 0 {
		c.WS.ReadLimit = 1 << 20
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 256
	}
	if c.Rooms.ReapAfter > 0 && c.Rooms.ReapEvery == 0 {
		c.Rooms.ReapEvery = time.Minute
	}
	if c.Postgres.ApplicationName == "" {
		c.Postgres.ApplicationName = c.Logging.Service
	}
	if c.Journal.Buffer == 0 {
		c.Journal.Buffer = 4096
	}
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = 200
	}
	if c.Journal.FlushEvery == 0 {
		c.Journal.FlushEvery = time.Second
	}
	return nil
}
