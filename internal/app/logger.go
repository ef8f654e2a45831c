package app

import (
	"strings"

	"github.com/eduleads/authcore/pkg/logger"
)

// ConfigureLogging initialises the global logger from the configured
// server.log_level, falling back to info when unset.
func ConfigureLogging(level string) error {
	if level = strings.TrimSpace(level); level == "" {
		level = "info"
	}
	return logger.Init(level)
}
