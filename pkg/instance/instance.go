package instance

import (
	"os"

	"github.com/fineshyttt/commerce-backend/pkg/env"
)

const fallbackID = "worker-0"

// GetID identifies this process in lock ownership and logs.
// COMMERCE_INSTANCE_ID wins, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.First("COMMERCE_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
