package coordinator

import (
	"context"
)

// Activator is implemented by every Coordinator regardless of its settings type.
type Activator interface {
	Activate(ctx context.Context) (func(), error)
}

// ⏱️ Session keeps a coordinator subscribed for the duration of fn. The
// subscription is released when fn returns, panics included.
func Session(ctx context.Context, a Activator, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	release, err := a.Activate(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx)
}
