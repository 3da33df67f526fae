package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	cb "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/circuit_breaker"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/kafka"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/logger"
	md "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/middleware"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/postgres"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/sqlite"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type HTTPServer struct {
	Host         string        `envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE" default:"10s"`
}

type Config struct {
	Server   HTTPServer
	Storage  string `envconfig:"STORAGE" default:"postgres"`
	Database postgres.DB
	SQLite   sqlite.DB
	Kafka    kafka.Config
	Breaker  cb.Config
	Auth     md.AuthConfig

	OverdueInterval time.Duration `envconfig:"OVERDUE_INTERVAL" default:"24h"`
	NotifyTimeout   time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`

	Log logger.Log
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment. Options run after the environment
// so explicit flags win.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		for _, op := range ops {
			op(&config)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	cfg.Database.Password = "***"
	cfg.Auth.JWTKey = "***"
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
