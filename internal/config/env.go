package config

import (
	"log/slog"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// loadEnvFile loads the first of .env and .env.local that parses. Existing
// process environment variables are not overwritten.
func loadEnvFile() error {
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			slog.Debug("Loaded environment variables", "path", envPath)
			return nil
		}
	}
	return errors.ConfigError("no .env file found").Build()
}
