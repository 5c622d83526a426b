package renderer

import (
	"log"
	"os"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stderr.
// Stdout stays free for image data.
type DefaultLogger struct {
	logger *log.Logger
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.logger.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{logger: log.New(os.Stderr, "", log.LstdFlags)}
}
