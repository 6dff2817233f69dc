package obs

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// InitLogger configures the global zerolog logger with a console writer
// and the given level (falling back to info on unknown values).
func InitLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Time returns a deferred closure that logs operation duration and outcome.
//
// Usage: defer obs.Time(ctx, "op.Name")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		evt := log.Debug()
		if errp != nil && *errp != nil {
			evt = log.Warn().Err(*errp)
		}
		evt.Str("req_id", reqID).Str("op", name).Int64("dur_ms", dur.Milliseconds()).Send()
	}
}
