// Package gosync adapts the teacher's utils/gosync/goroutine.go: a thin
// wrapper that launches a goroutine and recovers a panic inside it instead
// of letting it crash the process, since a panic in the script-execution
// goroutine should never take inspectord down with it.
package gosync

import (
	"context"

	"github.com/fansqz/js-inspector-bridge/internal/obs"
)

var log = obs.For("gosync")

// Go runs task in a new goroutine, recovering and logging any panic instead
// of propagating it.
func Go(ctx context.Context, task func(ctx context.Context)) {
	go func(ctx context.Context, f func(ctx context.Context)) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("recovered panic in background goroutine")
			}
		}()
		f(ctx)
	}(ctx, task)
}
