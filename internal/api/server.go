package api

import (
	"studycore/internal/services"
	"studycore/internal/syncqueue"
)

// Server bundles the services the HTTP layer exposes.
type Server struct {
	Sessions    *services.SessionService
	Progression services.ProgressionService
	SyncQueue   *syncqueue.Queue
	MemoryOnly  bool
}
