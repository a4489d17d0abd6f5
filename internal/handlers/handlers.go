package handlers

import (
	"sync"
	"time"

	"photovault/internal/pipeline"
	"photovault/internal/startup"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	pipeline  *pipeline.Pipeline
	config    *startup.Config
	startTime time.Time

	// importMu serializes API-triggered imports; the vault lock file
	// already guards cross-process runs, this avoids burning a request
	// on a guaranteed lock failure.
	importMu sync.Mutex
}

func New(p *pipeline.Pipeline, config *startup.Config) *Handlers {
	return &Handlers{
		pipeline:  p,
		config:    config,
		startTime: time.Now(),
	}
}
