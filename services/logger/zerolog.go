package logsvc

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/raphco/materia/core"
)

// ZerologLogger is the structured console logger used in development and
// as the local half of every deployment (Rollbar only ships errors upstream).
type ZerologLogger struct {
	log      zerolog.Logger
	disabled bool
}

var _ core.Logger = (*ZerologLogger)(nil)

func NewZerologLogger(conf *core.Config) *ZerologLogger {
	var w io.Writer = os.Stderr
	if conf.Debug {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	log := zerolog.New(w).With().
		Timestamp().
		Str("app", conf.AppName).
		Str("env", conf.Env).
		Logger()
	return &ZerologLogger{log: log}
}

func (l *ZerologLogger) Enable(enabled bool) {
	l.disabled = !enabled
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, args []interface{}) {
	if l.disabled {
		return
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			ev = ev.AnErr("error", v)
		case map[string]interface{}:
			ev = ev.Fields(v)
		default:
			ev = ev.Interface("detail", v)
		}
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, args ...interface{}) {
	l.emit(l.log.Debug(), msg, args)
}

func (l *ZerologLogger) Info(msg string, args ...interface{}) {
	l.emit(l.log.Info(), msg, args)
}

func (l *ZerologLogger) Warn(msg string, args ...interface{}) {
	l.emit(l.log.Warn(), msg, args)
}

func (l *ZerologLogger) Error(msg string, args ...interface{}) {
	l.emit(l.log.Error(), msg, args)
}

func (l *ZerologLogger) Fatal(msg string, args ...interface{}) {
	l.emit(l.log.Fatal(), msg, args)
}
