package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/goliatone/go-docstore/internal/atomicfile"
	"github.com/goliatone/go-docstore/pkg/activity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	reasonMissing = "missing"
	reasonCorrupt = "corrupt"
)

// recoverFrom resolves a failed primary: a corrupt primary is quarantined
// first, then the backup is restored when usable, and otherwise a default
// document is constructed in memory only.
const maxQuarantineAttempts = 1024

func (e *Engine[T]) recoverFrom(ctx context.Context, span trace.Span, reason string, cause error, start time.Time) T {
	span.SetAttributes(attribute.String("docstore.reason", reason))
	if reason == reasonCorrupt {
		e.record(ctx, outcome{op: OpLoad, reason: reason, err: cause, detail: "primary unusable"})
		e.quarantine(ctx)
	}

	doc, backupErr := e.loadBackup()
	if backupErr == nil {
		detail := "restored from backup"
		var restoreErr error
		if restoreErr = atomicfile.Restore(e.loc.Backup, e.loc.Primary); restoreErr != nil {
			detail = "backup decoded but could not be restored"
		}
		e.store(doc, false)
		span.SetAttributes(attribute.String("docstore.outcome", "recovered"))
		e.record(ctx, outcome{
			op:     OpRecover,
			build:  activity.BuildRecoveredEvent,
			path:   e.loc.Backup,
			reason: reason,
			err:    restoreErr,
			detail: detail,
			start:  start,
		})
		return doc
	}

	doc = e.newDefault()
	if reason == reasonMissing && errors.Is(backupErr, ErrNoBackup) {
		e.store(doc, true)
		span.SetAttributes(attribute.String("docstore.outcome", "defaulted"))
		e.record(ctx, outcome{op: OpDefault, build: activity.BuildDefaultedEvent, reason: reason, start: start})
		return doc
	}

	e.store(doc, reason == reasonMissing)
	span.SetAttributes(attribute.String("docstore.outcome", "exhausted"))
	err := cause
	if !errors.Is(backupErr, ErrNoBackup) {
		err = errors.Join(cause, fmt.Errorf("backup: %w", backupErr))
	}
	e.record(ctx, outcome{
		op:     OpExhausted,
		build:  activity.BuildExhaustedEvent,
		reason: reason,
		err:    err,
		detail: "no usable primary or backup, continuing with defaults",
		start:  start,
	})
	return doc
}

func (e *Engine[T]) loadBackup() (T, error) {
	data, err := os.ReadFile(e.loc.Backup)
	if err != nil {
		var zero T
		if errors.Is(err, fs.ErrNotExist) {
			return zero, ErrNoBackup
		}
		return zero, err
	}
	if len(data) == 0 {
		var zero T
		return zero, errors.New("backup is empty")
	}
	return e.decode(e.loc.Backup, data)
}

// quarantine copies the primary to a timestamped sibling that no existing
// file occupies. Failures are logged; recovery continues regardless.
func (e *Engine[T]) quarantine(ctx context.Context) string {
	path := e.nextQuarantinePath()
	if err := atomicfile.CopyNew(e.loc.Primary, path); err != nil {
		e.record(ctx, outcome{op: OpQuarantine, path: path, err: err, detail: "could not preserve corrupt primary"})
		return ""
	}
	e.record(ctx, outcome{
		op:         OpQuarantine,
		build:      activity.BuildQuarantinedEvent,
		quarantine: path,
		reason:     reasonCorrupt,
		detail:     "corrupt primary preserved as " + path,
	})
	return path
}

// nextQuarantinePath steps the stamp by 100ns while the candidate is taken.
// Any other stat error returns the candidate, so the copy fails and is
// logged instead of retried.
func (e *Engine[T]) nextQuarantinePath() string {
	at := e.cfg.clock()
	path := e.loc.QuarantinePath(at)
	for range maxQuarantineAttempts {
		if _, err := os.Lstat(path); err != nil {
			return path
		}
		at = at.Add(100 * time.Nanosecond)
		path = e.loc.QuarantinePath(at)
	}
	return path
}

// RestoreBackup replaces the primary with the backup and drops the cached
// document. The backup is consumed.
func (e *Engine[T]) RestoreBackup() error {
	if _, err := os.Stat(e.loc.Backup); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return e.storeErr(OpRecover, e.loc.Backup, ErrNoBackup)
		}
		return e.storeErr(OpRecover, e.loc.Backup, err)
	}
	if err := atomicfile.Restore(e.loc.Backup, e.loc.Primary); err != nil {
		return e.storeErr(OpRecover, e.loc.Primary, err)
	}
	e.Invalidate()
	e.record(context.Background(), outcome{op: OpRecover, build: activity.BuildRecoveredEvent, path: e.loc.Backup, reason: "manual"})
	return nil
}

// Quarantined lists the preserved corrupt primaries of the document.
func (e *Engine[T]) Quarantined() ([]QuarantineFile, error) {
	return ListQuarantine(e.loc)
}
