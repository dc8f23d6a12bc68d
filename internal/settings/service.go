package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockboard/internal/platform/httpx"
)

// Service reads and updates settings.
type Service struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, validate: validator.New(), logger: logger}
}

// Get returns stored settings or the defaults. A failing store degrades to
// the defaults with a warning.
func (s *Service) Get(ctx context.Context) Settings {
	stored, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotStored) {
			s.logger.Warn("settings load failed, using defaults", slog.Any("error", err))
		}
		return Defaults()
	}
	return stored
}

// Update applies patch, validates the result and saves it.
func (s *Service) Update(ctx context.Context, patch Patch) (Settings, error) {
	next := patch.Apply(s.Get(ctx))
	if err := s.validate.Struct(next); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if _, err := time.LoadLocation(next.Timezone); err != nil {
		return Settings{}, fmt.Errorf("%w: unknown timezone %q", httpx.ErrValidation, next.Timezone)
	}
	if err := s.store.Save(ctx, next); err != nil {
		return Settings{}, err
	}
	return next, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (s *Service) Location(ctx context.Context) *time.Location {
	loc, err := time.LoadLocation(s.Get(ctx).Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
