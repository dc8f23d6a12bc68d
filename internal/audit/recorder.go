// Package audit records audit logs to the spreadsheet and optional mirrors,
// and serves the paged audit timeline.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

// ErrNoPrimary is returned when the recorder has no primary sink.
var ErrNoPrimary = errors.New("audit: primary sink not configured")

// Primary is the authoritative audit store.
type Primary interface {
	AppendAuditLog(ctx context.Context, log inventory.AuditLog) (inventory.AuditLog, error)
}

// Sink receives a copy of every recorded log.
type Sink interface {
	Name() string
	Publish(ctx context.Context, log inventory.AuditLog) error
}

// Recorder writes to the primary store and fans out to mirrors.
type Recorder struct {
	primary Primary
	mirrors []Sink
	logger  *slog.Logger
}

// NewRecorder builds a Recorder. Nil mirrors are ignored.
func NewRecorder(primary Primary, logger *slog.Logger, mirrors ...Sink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{primary: primary, logger: logger}
	for _, m := range mirrors {
		if m != nil {
			r.mirrors = append(r.mirrors, m)
		}
	}
	return r
}

// Record persists log. Mirror failures are logged, not returned.
func (r *Recorder) Record(ctx context.Context, log inventory.AuditLog) error {
	if r.primary == nil {
		return ErrNoPrimary
	}
	if log.UserID == "" {
		log.UserID = inventory.SystemUser
	}
	stored, err := r.primary.AppendAuditLog(ctx, log)
	if err != nil {
		return fmt.Errorf("audit: record %s %s: %w", log.Action, log.EntityType, err)
	}
	for _, m := range r.mirrors {
		if err := m.Publish(ctx, stored); err != nil {
			r.logger.Warn("audit mirror failed",
				slog.String("sink", m.Name()),
				slog.String("audit_id", stored.ID),
				slog.Any("error", err))
		}
	}
	return nil
}
