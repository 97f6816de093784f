// Package workers runs bounded groups of goroutines that survive panics
package workers

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

// SafeGroup wraps errgroup.Group and turns a panicking task into an error
type SafeGroup struct {
	group  *errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a group whose context is cancelled by the first failure
func NewSafeGroup(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{group: g, logger: log}, ctx
}

// Go runs fn in a new goroutine
func (sg *SafeGroup) Go(fn func() error) {
	sg.GoNamed("", fn)
}

// GoNamed runs fn in a new goroutine; name identifies the task in panic reports
func (sg *SafeGroup) GoNamed(name string, fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				fields := []logger.Field{
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(debug.Stack())),
				}
				if name != "" {
					fields = append(fields, logger.WithField("task", name))
					err = fmt.Errorf("%s: panic: %v", name, r)
				} else {
					err = fmt.Errorf("goroutine panic: %v", r)
				}
				sg.logger.Error("Worker panic recovered", fields...)
			}
		}()
		return fn()
	})
}

// SetLimit bounds the number of running goroutines. n <= 0 uses GOMAXPROCS.
func (sg *SafeGroup) SetLimit(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	sg.group.SetLimit(n)
}

// Wait blocks until every task finished and returns the first error
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}

// ForEach runs fn for every item with at most limit concurrent calls. It
// stops scheduling after the first error, which it returns.
func ForEach[T any](ctx context.Context, log logger.Logger, limit int, items []T, name func(T) string, fn func(context.Context, T) error) error {
	sg, gctx := NewSafeGroup(ctx, log)
	sg.SetLimit(limit)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		item := item
		label := ""
		if name != nil {
			label = name(item)
		}
		sg.GoNamed(label, func() error {
			return fn(gctx, item)
		})
	}
	if err := sg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
