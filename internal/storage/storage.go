// Package storage defines the transactional view of the preference tables
// shared by the postgres and sqlite backends.
package storage

import (
	"context"

	"example.com/notifprefs/internal/domain"
)

// Store hands out one transaction per unit of work. InTx commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged
// unless it is a driver constraint failure, which is reported as
// domain.ErrIntegrityViolation.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ready(ctx context.Context) error
	Close() error
}

// References resolves reference entities. Missing rows are reported as
// errors wrapping domain.ErrNotFound.
type References interface {
	Tenant(ctx context.Context, id int64) (domain.Tenant, error)
	Category(ctx context.Context, id int64) (domain.Category, error)
	Event(ctx context.Context, id int64) (domain.Event, error)
	Channel(ctx context.Context, id int64) (domain.Channel, error)

	Categories(ctx context.Context) ([]domain.Category, error)
	Events(ctx context.Context) ([]domain.Event, error)
	Channels(ctx context.Context) ([]domain.Channel, error)
}

// Preferences reads and appends preference rows. Rows are returned in
// insertion order.
type Preferences interface {
	InsertTenantPreferences(ctx context.Context, rows []domain.TenantPreference) (int64, error)
	InsertUserPreferences(ctx context.Context, rows []domain.UserPreference) (int64, error)

	TenantPreferenceRows(ctx context.Context, tenantID int64) ([]domain.PreferenceRow, error)
	// UserPreferenceRows returns rows across all tenants when tenantID is 0.
	UserPreferenceRows(ctx context.Context, userID, tenantID int64) ([]domain.PreferenceRow, error)
}

// Seeds upserts reference entities by id.
type Seeds interface {
	UpsertTenant(ctx context.Context, t domain.Tenant) error
	UpsertCategory(ctx context.Context, c domain.Category) error
	UpsertEvent(ctx context.Context, e domain.Event) error
	UpsertChannel(ctx context.Context, c domain.Channel) error
}

type Tx interface {
	References
	Preferences
	Seeds
}
