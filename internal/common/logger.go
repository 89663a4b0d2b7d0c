package common

import (
	"os"

	"github.com/phuslu/log"
)

// InitLogger points the global logger at stdout with the given level name.
// Unknown names fall back to info.
func InitLogger(level string) {
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         os.Stdout,
			ColorOutput:    false,
			EndWithMessage: true,
		},
	}
}
