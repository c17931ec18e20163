package preferences

import (
	"context"
	"errors"
	"fmt"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

// TenantPreferences returns the tenant's preference tree. A tenant that
// exists but has no rows yields an empty tree, not an error.
func (s *Service) TenantPreferences(ctx context.Context, tenantID int64) (*domain.TenantPreferences, error) {
	var out *domain.TenantPreferences
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		tenant, err := tx.Tenant(ctx, tenantID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Tenant with ID %d not found", tenantID)
		}
		if err != nil {
			return fmt.Errorf("lookup tenant: %w", err)
		}
		rows, err := tx.TenantPreferenceRows(ctx, tenantID)
		if err != nil {
			return err
		}
		out = &domain.TenantPreferences{
			TenantID:    tenant.ID,
			TenantName:  tenant.Name,
			Preferences: domain.Aggregate(rows),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UserPreferences returns the user's preference tree, optionally narrowed to
// one tenant (tenantID 0 means all). A user without rows is NotFound; the
// reported tenant is the one on the first stored row.
func (s *Service) UserPreferences(ctx context.Context, userID, tenantID int64) (*domain.UserPreferences, error) {
	var out *domain.UserPreferences
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		rows, err := tx.UserPreferenceRows(ctx, userID, tenantID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.NotFound("User with ID %d has no preferences", userID)
		}
		out = &domain.UserPreferences{
			UserID:      userID,
			TenantID:    rows[0].TenantID,
			Preferences: domain.Aggregate(rows),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
