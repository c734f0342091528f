// Command npadb administers the NPA gazetteer database.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
)

func main() {
	// Overload so a project .env wins over stale shell exports.
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file")
	}
	Execute()
}
