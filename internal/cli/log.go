package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
)

// logLevelEnv names the environment variable read when --verbose is not
// given, e.g. LINEAGE_LOG_LEVEL=warn.
const logLevelEnv = "LINEAGE_LOG_LEVEL"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// resolveLevel picks the log level: --verbose first, then the value of
// LINEAGE_LOG_LEVEL, then fallback.
func resolveLevel(verbose bool, env string, fallback log.Level) (log.Level, error) {
	if verbose {
		return log.DebugLevel, nil
	}
	env = strings.TrimSpace(env)
	if env == "" {
		return fallback, nil
	}
	level, err := log.ParseLevel(env)
	if err != nil {
		return fallback, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", logLevelEnv)
	}
	return level, nil
}

// timed starts a clock and returns a func that logs msg at info level with
// the elapsed time attached as "took".
func timed(l *log.Logger) func(msg string, keyvals ...any) {
	start := time.Now()
	return func(msg string, keyvals ...any) {
		l.Info(msg, append(keyvals, "took", time.Since(start).Round(time.Millisecond))...)
	}
}

type loggerKey struct{}

func contextWithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFrom returns the logger attached by the root command, or
// log.Default() outside a command.
func loggerFrom(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
