package backend

import (
	"fmt"

	appconfig "bilancio/internal/config"
)

// Config carries the subset of application configuration the backend
// factory needs to build a store and its messaging client.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig maps the validated application configuration onto a
// backend configuration.
func FromAppConfig(cfg *appconfig.Config) Config {
	return Config{
		Type:         BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}
}

func (c Config) Validate() error {
	switch c.Type {
	case BackendMemory:
		return nil
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("sqlite backend requires a database path")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend type: %s", c.Type)
	}
}
