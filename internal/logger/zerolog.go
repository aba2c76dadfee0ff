package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements Logger on top of a zerolog.Logger. Every line carries
// the emitting component.
type ZerologAdapter struct {
	zl zerolog.Logger
}

func NewZerolog(w io.Writer, level LogLevel) *ZerologAdapter {
	zl := zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
	return &ZerologAdapter{zl: zl}
}

// NewConsoleLogger writes human-readable lines to stdout.
func NewConsoleLogger(level LogLevel) *ZerologAdapter {
	return NewZerolog(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}, level)
}

// NewJSONLogger writes one JSON object per line to stdout.
func NewJSONLogger(level LogLevel) *ZerologAdapter {
	return NewZerolog(os.Stdout, level)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	send(z.zl.Debug(), component, message, fields)
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	send(z.zl.Info(), component, message, fields)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	send(z.zl.Warn(), component, message, fields)
}

func (z *ZerologAdapter) Error(component, message string, err error, fields map[string]interface{}) {
	send(z.zl.Error().Err(err), component, message, fields)
}

// send is a no-op for events below the configured level (zerolog hands out nil).
func send(ev *zerolog.Event, component, message string, fields map[string]interface{}) {
	if ev == nil {
		return
	}
	ev.Str("component", component).Fields(fields).Msg(message)
}
