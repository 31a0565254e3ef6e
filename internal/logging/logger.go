package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/mailpanel/internal/config"
)

// NewLogger creates the root structured logger from config. The level falls
// back to info when LOG_LEVEL is unparseable.
func NewLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "mailpanel-api").Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
