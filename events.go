package docstore

import (
	"context"
	"time"

	"github.com/goliatone/go-docstore/pkg/activity"
)

type outcome struct {
	op         string
	build      func(activity.DocumentEventInput) activity.Event
	path       string
	quarantine string
	reason     string
	detail     string
	err        error
	start      time.Time
}

// record logs an outcome and, when it maps to an activity verb, emits it.
func (e *Engine[T]) record(ctx context.Context, o outcome) {
	var elapsed time.Duration
	if !o.start.IsZero() {
		elapsed = e.cfg.clock().Sub(o.start)
	}
	path := o.path
	if path == "" {
		path = e.loc.Primary
	}
	e.cfg.logger.Log(LogEvent{
		Op:       o.op,
		Name:     e.name,
		Path:     path,
		Duration: elapsed,
		Err:      o.err,
		Detail:   o.detail,
	})
	if o.build == nil || !e.emitter.Enabled() {
		return
	}
	event := o.build(activity.DocumentEventInput{
		Name:           e.name,
		Path:           path,
		QuarantinePath: o.quarantine,
		Reason:         o.reason,
		Duration:       elapsed,
		Err:            o.err,
	})
	if err := e.emitter.Emit(ctx, event); err != nil {
		e.cfg.logger.Log(LogEvent{Op: o.op, Name: e.name, Path: path, Err: err, Detail: "activity hook failed"})
	}
}
