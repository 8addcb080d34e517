// Package logging carries the acting user through context and into zerolog
// events.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component derives a child of the global logger tagged cmp=name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("cmp", name).Logger()
}

// ContextHook adds actor and role fields to events logged with Ctx(ctx).
// Empty values are omitted.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	fields := [...]struct{ key, val string }{
		{"actor", GetActor(ctx)},
		{"role", GetRole(ctx)},
	}
	for _, f := range fields {
		if f.val != "" {
			e.Str(f.key, f.val)
		}
	}
}
