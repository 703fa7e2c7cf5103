package portal

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface so
// embedders get structured output instead of the plain default logger.
type ZerologLogger struct {
	log zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

// NewZerologWriter builds a logger writing to w with timestamps attached.
func NewZerologWriter(w io.Writer) *ZerologLogger {
	return &ZerologLogger{
		log: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (z *ZerologLogger) Debug(format string, args ...any) {
	z.log.Debug().Msgf(format, args...)
}

func (z *ZerologLogger) Info(format string, args ...any) {
	z.log.Info().Msgf(format, args...)
}

func (z *ZerologLogger) Warn(format string, args ...any) {
	z.log.Warn().Msgf(format, args...)
}

func (z *ZerologLogger) Error(format string, args ...any) {
	z.log.Error().Msgf(format, args...)
}
