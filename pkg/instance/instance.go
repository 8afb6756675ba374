package instance

import (
	"os"

	"github.com/angelmondragon/canyonbook-backend/pkg/env"
)

// GetID returns the worker instance identifier used for lock ownership and log fields.
func GetID() string {
	if id := env.Get("CANYONBOOK_WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
