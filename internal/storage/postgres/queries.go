package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

// Tx implements storage.Tx on top of a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

var _ storage.Tx = (*Tx)(nil)

func (t *Tx) getOne(ctx context.Context, what string, id int64, sql string, dest ...any) error {
	err := t.tx.QueryRow(ctx, sql, id).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("select %s %d: %w", what, id, err)
	}
	return nil
}

func (t *Tx) Tenant(ctx context.Context, id int64) (domain.Tenant, error) {
	var v domain.Tenant
	err := t.getOne(ctx, "tenant", id,
		"SELECT tenant_id, tenant_name FROM tenants WHERE tenant_id=$1", &v.ID, &v.Name)
	return v, err
}

func (t *Tx) Category(ctx context.Context, id int64) (domain.Category, error) {
	var v domain.Category
	err := t.getOne(ctx, "category", id,
		"SELECT category_id, category_name FROM categories WHERE category_id=$1", &v.ID, &v.Name)
	return v, err
}

func (t *Tx) Event(ctx context.Context, id int64) (domain.Event, error) {
	var v domain.Event
	err := t.getOne(ctx, "event", id,
		"SELECT event_id, category_id, event_name FROM events WHERE event_id=$1", &v.ID, &v.CategoryID, &v.Name)
	return v, err
}

func (t *Tx) Channel(ctx context.Context, id int64) (domain.Channel, error) {
	var v domain.Channel
	err := t.getOne(ctx, "channel", id,
		"SELECT channel_id, channel_name FROM channels WHERE channel_id=$1", &v.ID, &v.Name)
	return v, err
}

func collect[T any](ctx context.Context, tx pgx.Tx, sql string, args ...any) ([]T, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[T])
}

func (t *Tx) Categories(ctx context.Context) ([]domain.Category, error) {
	return collect[domain.Category](ctx, t.tx,
		"SELECT category_id, category_name FROM categories ORDER BY category_id")
}

func (t *Tx) Events(ctx context.Context) ([]domain.Event, error) {
	return collect[domain.Event](ctx, t.tx,
		"SELECT event_id, category_id, event_name FROM events ORDER BY event_id")
}

func (t *Tx) Channels(ctx context.Context) ([]domain.Channel, error) {
	return collect[domain.Channel](ctx, t.tx,
		"SELECT channel_id, channel_name FROM channels ORDER BY channel_id")
}

const treeColumns = `p.tenant_id, p.category_id, c.category_name, p.event_id, e.event_name, p.channel_id, ch.channel_name`

const treeJoins = `
JOIN categories c ON c.category_id = p.category_id
JOIN events e ON e.event_id = p.event_id
JOIN channels ch ON ch.channel_id = p.channel_id`

func (t *Tx) TenantPreferenceRows(ctx context.Context, tenantID int64) ([]domain.PreferenceRow, error) {
	sql := "SELECT " + treeColumns + " FROM tenant_preferences p" + treeJoins +
		"\nWHERE p.tenant_id=$1 ORDER BY p.tenant_pref_id"
	rows, err := collect[domain.PreferenceRow](ctx, t.tx, sql, tenantID)
	if err != nil {
		return nil, fmt.Errorf("select tenant preferences: %w", err)
	}
	return rows, nil
}

func (t *Tx) UserPreferenceRows(ctx context.Context, userID, tenantID int64) ([]domain.PreferenceRow, error) {
	sql := "SELECT " + treeColumns + " FROM user_preferences p" + treeJoins + "\nWHERE p.user_id=$1"
	args := []any{userID}
	if tenantID != 0 {
		sql += " AND p.tenant_id=$2"
		args = append(args, tenantID)
	}
	sql += " ORDER BY p.user_pref_id"

	rows, err := collect[domain.PreferenceRow](ctx, t.tx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select user preferences: %w", err)
	}
	return rows, nil
}

// --- Seeds ---

func (t *Tx) UpsertTenant(ctx context.Context, v domain.Tenant) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO tenants (tenant_id, tenant_name) VALUES ($1,$2)
ON CONFLICT (tenant_id) DO UPDATE SET tenant_name=EXCLUDED.tenant_name`, v.ID, v.Name)
	return err
}

func (t *Tx) UpsertCategory(ctx context.Context, v domain.Category) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO categories (category_id, category_name) VALUES ($1,$2)
ON CONFLICT (category_id) DO UPDATE SET category_name=EXCLUDED.category_name`, v.ID, v.Name)
	return err
}

func (t *Tx) UpsertEvent(ctx context.Context, v domain.Event) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO events (event_id, category_id, event_name) VALUES ($1,$2,$3)
ON CONFLICT (event_id) DO UPDATE SET category_id=EXCLUDED.category_id, event_name=EXCLUDED.event_name`,
		v.ID, v.CategoryID, v.Name)
	return err
}

func (t *Tx) UpsertChannel(ctx context.Context, v domain.Channel) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO channels (channel_id, channel_name) VALUES ($1,$2)
ON CONFLICT (channel_id) DO UPDATE SET channel_name=EXCLUDED.channel_name`, v.ID, v.Name)
	return err
}
