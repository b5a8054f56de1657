package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when a conversion exceeds its time limit.
	ErrTimeout = errors.New("conversion timed out")
	// ErrPanic is returned when a conversion step panics.
	ErrPanic = errors.New("panic during conversion")
)

// convertResult passes a conversion outcome through a channel.
type convertResult struct {
	res *Result
	err error
}

// runWithTimeout runs fn in its own goroutine and waits for its result, for
// ctx to end or for timeout to elapse. A zero timeout waits for ctx only.
// A panic in fn is returned as ErrPanic.
//
// On timeout fn may still be running; the context it was given is
// cancelled so it stops at its next check and its result is dropped.
func runWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) (*Result, error)) (*Result, error) {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ch := make(chan convertResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- convertResult{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		res, err := fn(ctx)
		ch <- convertResult{res: res, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return r.res, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}
