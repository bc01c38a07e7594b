// Package backend selects and wires the persistence layer at startup.
package backend

import (
	"bilancio/internal/amqp"
	"bilancio/internal/services"
)

type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendSQLite BackendType = "sqlite"
)

// Result bundles everything a created backend hands to the caller. The AMQP
// client is nil when the backend runs without messaging.
type Result struct {
	Store      services.Store
	AMQPClient *amqp.Client
	Cleanup    func()
}

// Factory creates a ready-to-use backend from its configuration.
type Factory interface {
	Create(cfg Config) (*Result, error)
}
