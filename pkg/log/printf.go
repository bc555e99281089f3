package log

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Printf bridges libraries that log through Printf or an io.Writer (goose, the
// standard log package) into the context logger at a fixed level.
type Printf struct {
	logger *zerolog.Logger
	level  zerolog.Level
	source string
}

func NewPrintf(ctx context.Context, source string, level zerolog.Level) *Printf {
	return &Printf{logger: FromCtx(ctx), level: level, source: source}
}

func (p *Printf) Printf(format string, v ...any) {
	p.logger.WithLevel(p.level).Str("source", p.source).Msgf(strings.TrimRight(format, "\n"), v...)
}

// Fatalf is required by goose; it logs and exits.
func (p *Printf) Fatalf(format string, v ...any) {
	p.logger.Fatal().Str("source", p.source).Msgf(strings.TrimRight(format, "\n"), v...)
}

func (p *Printf) Write(b []byte) (int, error) {
	p.logger.WithLevel(p.level).Str("source", p.source).Msg(strings.TrimRight(string(b), "\n"))
	return len(b), nil
}
