package commands

import (
	"context"

	"github.com/walteh/copify/pkg/coordinator"
	"github.com/walteh/copify/pkg/log"
)

// runLog mirrors a coordinator's state into the plain run log. It draws each
// history entry once.
type runLog struct {
	ctx     context.Context
	logger  *log.Logger
	run     log.Run
	seen    int
	started bool
	ended   bool
}

func (r *runLog) observe(s coordinator.RunState) {
	if !s.Started || r.ended {
		return
	}
	if !r.started {
		r.started = true
		r.run.RunID = s.RunID
		r.logger.StartRun(r.ctx, r.run)
	}

	for _, n := range s.History[r.seen:] {
		r.logger.LogNotification(r.ctx, n)
	}
	r.seen = len(s.History)

	switch {
	case s.Failed():
		r.ended = true
		r.logger.Error(s.ConfigurationError)
	case !s.Running():
		r.ended = true
		r.logger.EndRun(r.ctx)
	}
}
