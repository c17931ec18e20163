package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

// Tx implements storage.Tx on top of a bun transaction.
type Tx struct {
	tx bun.Tx
}

var _ storage.Tx = (*Tx)(nil)

func (t *Tx) getOne(ctx context.Context, what string, id int64, model any, pk string) error {
	err := t.tx.NewSelect().Model(model).Where("? = ?", bun.Ident(pk), id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("select %s %d: %w", what, id, err)
	}
	return nil
}

func (t *Tx) Tenant(ctx context.Context, id int64) (domain.Tenant, error) {
	m := new(tenantModel)
	if err := t.getOne(ctx, "tenant", id, m, "tenant_id"); err != nil {
		return domain.Tenant{}, err
	}
	return domain.Tenant{ID: m.ID, Name: m.Name}, nil
}

func (t *Tx) Category(ctx context.Context, id int64) (domain.Category, error) {
	m := new(categoryModel)
	if err := t.getOne(ctx, "category", id, m, "category_id"); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: m.ID, Name: m.Name}, nil
}

func (t *Tx) Event(ctx context.Context, id int64) (domain.Event, error) {
	m := new(eventModel)
	if err := t.getOne(ctx, "event", id, m, "event_id"); err != nil {
		return domain.Event{}, err
	}
	return domain.Event{ID: m.ID, CategoryID: m.CategoryID, Name: m.Name}, nil
}

func (t *Tx) Channel(ctx context.Context, id int64) (domain.Channel, error) {
	m := new(channelModel)
	if err := t.getOne(ctx, "channel", id, m, "channel_id"); err != nil {
		return domain.Channel{}, err
	}
	return domain.Channel{ID: m.ID, Name: m.Name}, nil
}

func (t *Tx) Categories(ctx context.Context) ([]domain.Category, error) {
	var ms []categoryModel
	if err := t.tx.NewSelect().Model(&ms).OrderExpr("category_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	out := make([]domain.Category, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.Category{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

func (t *Tx) Events(ctx context.Context) ([]domain.Event, error) {
	var ms []eventModel
	if err := t.tx.NewSelect().Model(&ms).OrderExpr("event_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	out := make([]domain.Event, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.Event{ID: m.ID, CategoryID: m.CategoryID, Name: m.Name})
	}
	return out, nil
}

func (t *Tx) Channels(ctx context.Context) ([]domain.Channel, error) {
	var ms []channelModel
	if err := t.tx.NewSelect().Model(&ms).OrderExpr("channel_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select channels: %w", err)
	}
	out := make([]domain.Channel, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.Channel{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

// --- Preferences ---

func (t *Tx) InsertTenantPreferences(ctx context.Context, rows []domain.TenantPreference) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ms := make([]tenantPreferenceModel, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, tenantPreferenceModel{
			TenantID:   r.TenantID,
			CategoryID: r.CategoryID,
			EventID:    r.EventID,
			ChannelID:  r.ChannelID,
		})
	}
	res, err := t.tx.NewInsert().Model(&ms).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert tenant_preferences: %w", err)
	}
	return res.RowsAffected()
}

func (t *Tx) InsertUserPreferences(ctx context.Context, rows []domain.UserPreference) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ms := make([]userPreferenceModel, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, userPreferenceModel{
			UserID:     r.UserID,
			TenantID:   r.TenantID,
			CategoryID: r.CategoryID,
			EventID:    r.EventID,
			ChannelID:  r.ChannelID,
		})
	}
	res, err := t.tx.NewInsert().Model(&ms).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert user_preferences: %w", err)
	}
	return res.RowsAffected()
}

func (t *Tx) treeQuery(table string) *bun.SelectQuery {
	return t.tx.NewSelect().
		TableExpr("? AS p", bun.Ident(table)).
		ColumnExpr("p.tenant_id, p.category_id, c.category_name, p.event_id, e.event_name, p.channel_id, ch.channel_name").
		Join("JOIN categories AS c ON c.category_id = p.category_id").
		Join("JOIN events AS e ON e.event_id = p.event_id").
		Join("JOIN channels AS ch ON ch.channel_id = p.channel_id")
}

func scanTree(ctx context.Context, q *bun.SelectQuery) ([]domain.PreferenceRow, error) {
	var ms []preferenceRowModel
	if err := q.Scan(ctx, &ms); err != nil {
		return nil, err
	}
	out := make([]domain.PreferenceRow, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (t *Tx) TenantPreferenceRows(ctx context.Context, tenantID int64) ([]domain.PreferenceRow, error) {
	q := t.treeQuery("tenant_preferences").
		Where("p.tenant_id = ?", tenantID).
		OrderExpr("p.tenant_pref_id ASC")
	rows, err := scanTree(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select tenant preferences: %w", err)
	}
	return rows, nil
}

func (t *Tx) UserPreferenceRows(ctx context.Context, userID, tenantID int64) ([]domain.PreferenceRow, error) {
	q := t.treeQuery("user_preferences").Where("p.user_id = ?", userID)
	if tenantID != 0 {
		q = q.Where("p.tenant_id = ?", tenantID)
	}
	rows, err := scanTree(ctx, q.OrderExpr("p.user_pref_id ASC"))
	if err != nil {
		return nil, fmt.Errorf("select user preferences: %w", err)
	}
	return rows, nil
}

// --- Seeds ---

func (t *Tx) UpsertTenant(ctx context.Context, v domain.Tenant) error {
	m := &tenantModel{ID: v.ID, Name: v.Name}
	_, err := t.tx.NewInsert().Model(m).
		On("CONFLICT (tenant_id) DO UPDATE").
		Set("tenant_name = EXCLUDED.tenant_name").
		Exec(ctx)
	return err
}

func (t *Tx) UpsertCategory(ctx context.Context, v domain.Category) error {
	m := &categoryModel{ID: v.ID, Name: v.Name}
	_, err := t.tx.NewInsert().Model(m).
		On("CONFLICT (category_id) DO UPDATE").
		Set("category_name = EXCLUDED.category_name").
		Exec(ctx)
	return err
}

func (t *Tx) UpsertEvent(ctx context.Context, v domain.Event) error {
	m := &eventModel{ID: v.ID, CategoryID: v.CategoryID, Name: v.Name}
	_, err := t.tx.NewInsert().Model(m).
		On("CONFLICT (event_id) DO UPDATE").
		Set("category_id = EXCLUDED.category_id").
		Set("event_name = EXCLUDED.event_name").
		Exec(ctx)
	return err
}

func (t *Tx) UpsertChannel(ctx context.Context, v domain.Channel) error {
	m := &channelModel{ID: v.ID, Name: v.Name}
	_, err := t.tx.NewInsert().Model(m).
		On("CONFLICT (channel_id) DO UPDATE").
		Set("channel_name = EXCLUDED.channel_name").
		Exec(ctx)
	return err
}
