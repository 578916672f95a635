// Package logger bridges printf-style logging hooks of client libraries onto
// slog.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Printf logs every Printf call at a fixed level with a component attribute.
// It satisfies kafka.Logger and similar single-method interfaces.
type Printf struct {
	log   *slog.Logger
	level slog.Level
}

// New returns a Printf bridge for component. A nil base discards output.
func New(base *slog.Logger, component string, level slog.Level) *Printf {
	if base == nil {
		base = slog.New(slog.DiscardHandler)
	}
	return &Printf{log: base.With("component", component), level: level}
}

// Printf formats and logs one message.
func (p *Printf) Printf(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	p.log.Log(context.Background(), p.level, msg)
}
