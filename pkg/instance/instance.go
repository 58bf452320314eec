package instance

import (
	"os"

	"github.com/angelmondragon/sweetshop-backend/pkg/env"
)

// GetID identifies the running process in logs. SWEETSHOP_INSTANCE_ID wins,
// then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("SWEETSHOP_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
