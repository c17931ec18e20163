// Package preferences validates and stores nested preference submissions
// and folds stored rows back into category -> event -> channel trees.
//
// Every operation runs inside exactly one storage transaction.
package preferences

import (
	"context"
	"fmt"
	"log/slog"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

type Service struct {
	store  storage.Store
	logger *slog.Logger
}

func NewService(store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// --- Reference listings ---

func (s *Service) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	var out []domain.Channel
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.Channels(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return out, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.Categories(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	var out []domain.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.Events(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}
