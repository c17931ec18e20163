package preferences

import (
	"context"
	"errors"
	"fmt"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

// CreateTenantPreferences validates every reference in sub and, only if all
// of them resolve, inserts one row per leaf in a single statement. It
// returns the number of rows inserted.
func (s *Service) CreateTenantPreferences(ctx context.Context, tenantID int64, sub domain.TenantSubmission) (int64, error) {
	var inserted int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := requireTenant(ctx, tx, tenantID); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, sub.Preferences); err != nil {
			return err
		}
		n, err := tx.InsertTenantPreferences(ctx, domain.FlattenTenant(tenantID, sub.Preferences))
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("tenant preferences stored", "tenant_id", tenantID, "rows", inserted)
	return inserted, nil
}

// CreateUserPreferences is CreateTenantPreferences for a user within the
// tenant named in the submission. The user id itself is not validated.
func (s *Service) CreateUserPreferences(ctx context.Context, userID int64, sub domain.UserSubmission) (int64, error) {
	var inserted int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := requireTenant(ctx, tx, sub.TenantID); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, sub.Preferences); err != nil {
			return err
		}
		n, err := tx.InsertUserPreferences(ctx, domain.FlattenUser(userID, sub.TenantID, sub.Preferences))
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("user preferences stored", "user_id", userID, "tenant_id", sub.TenantID, "rows", inserted)
	return inserted, nil
}

func requireTenant(ctx context.Context, tx storage.Tx, tenantID int64) error {
	_, err := tx.Tenant(ctx, tenantID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Tenant with ID %d not found", tenantID)
	}
	if err != nil {
		return fmt.Errorf("lookup tenant: %w", err)
	}
	return nil
}

// checkReferences walks the submission depth first and stops at the first
// reference that does not resolve. Ids already resolved in this submission
// are not looked up again.
func checkReferences(ctx context.Context, tx storage.Tx, blocks []domain.CategoryBlock) error {
	categories := make(map[int64]bool)
	events := make(map[int64]int64) // event id -> category id
	channels := make(map[int64]bool)

	for _, c := range blocks {
		if !categories[c.CategoryID] {
			_, err := tx.Category(ctx, c.CategoryID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.InvalidReference("Category %d not found", c.CategoryID)
			}
			if err != nil {
				return fmt.Errorf("lookup category: %w", err)
			}
			categories[c.CategoryID] = true
		}

		for _, e := range c.Events {
			owner, ok := events[e.EventID]
			if !ok {
				ev, err := tx.Event(ctx, e.EventID)
				if errors.Is(err, domain.ErrNotFound) {
					return domain.InvalidReference("Event %d not found", e.EventID)
				}
				if err != nil {
					return fmt.Errorf("lookup event: %w", err)
				}
				owner = ev.CategoryID
				events[e.EventID] = owner
			}
			if owner != c.CategoryID {
				return domain.InvalidReference("Event %d does not belong to category %d", e.EventID, c.CategoryID)
			}

			for _, ch := range e.Channels {
				if channels[ch.ChannelID] {
					continue
				}
				_, err := tx.Channel(ctx, ch.ChannelID)
				if errors.Is(err, domain.ErrNotFound) {
					return domain.InvalidReference("Channel %d not found", ch.ChannelID)
				}
				if err != nil {
					return fmt.Errorf("lookup channel: %w", err)
				}
				channels[ch.ChannelID] = true
			}
		}
	}
	return nil
}
