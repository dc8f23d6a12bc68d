package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Reader lists stored audit logs.
type Reader interface {
	ListAuditLogs(ctx context.Context) ([]inventory.AuditLog, error)
}

// TimelineFilters narrows the audit timeline. Zero values match everything.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the returned window.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result wraps a timeline page.
type Result struct {
	Rows   []inventory.AuditLog `json:"rows"`
	Paging PagingInfo           `json:"paging"`
}

// Service reads the audit timeline.
type Service struct {
	reader Reader
}

// NewService creates the timeline service.
func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

// Timeline returns the newest-first page matching filters.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	rows, err := s.Export(ctx, filters)
	if err != nil {
		return Result{}, err
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + pageSize
	hasNext := end < len(rows)
	if !hasNext {
		end = len(rows)
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows[offset:end], Paging: paging}, nil
}

// Export returns every log matching filters, newest first.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]inventory.AuditLog, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("audit: reader not configured")
	}
	logs, err := s.reader.ListAuditLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: list logs: %w", err)
	}
	out := make([]inventory.AuditLog, 0, len(logs))
	for _, log := range logs {
		if filters.matches(log) {
			out = append(out, log)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

func (f TimelineFilters) matches(log inventory.AuditLog) bool {
	if f.Actor != "" && !strings.EqualFold(log.UserID, f.Actor) {
		return false
	}
	if f.Entity != "" && !strings.EqualFold(string(log.EntityType), f.Entity) {
		return false
	}
	if f.Action != "" && !strings.EqualFold(string(log.Action), f.Action) {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	at, err := time.Parse(time.RFC3339Nano, log.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && at.Before(f.From) {
		return false
	}
	// To is a calendar day; include all of it.
	if !f.To.IsZero() && !at.Before(f.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// WriteCSV renders logs with the changes column as JSON.
func WriteCSV(w io.Writer, logs []inventory.AuditLog) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"timestamp", "userId", "action", "entityType", "entityId", "changes"}); err != nil {
		return err
	}
	for _, log := range logs {
		changes, err := json.Marshal(log.Changes)
		if err != nil {
			return fmt.Errorf("audit: encode changes: %w", err)
		}
		if err := writer.Write([]string{
			log.Timestamp, log.UserID, string(log.Action), string(log.EntityType), log.EntityID, string(changes),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
