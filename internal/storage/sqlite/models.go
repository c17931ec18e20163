package sqlite

import (
	"github.com/uptrace/bun"

	"example.com/notifprefs/internal/domain"
)

type tenantModel struct {
	bun.BaseModel `bun:"table:tenants"`

	ID   int64  `bun:"tenant_id,pk"`
	Name string `bun:"tenant_name"`
}

type categoryModel struct {
	bun.BaseModel `bun:"table:categories"`

	ID   int64  `bun:"category_id,pk"`
	Name string `bun:"category_name"`
}

type eventModel struct {
	bun.BaseModel `bun:"table:events"`

	ID         int64  `bun:"event_id,pk"`
	CategoryID int64  `bun:"category_id"`
	Name       string `bun:"event_name"`
}

type channelModel struct {
	bun.BaseModel `bun:"table:channels"`

	ID   int64  `bun:"channel_id,pk"`
	Name string `bun:"channel_name"`
}

type tenantPreferenceModel struct {
	bun.BaseModel `bun:"table:tenant_preferences"`

	ID         int64 `bun:"tenant_pref_id,pk,autoincrement"`
	TenantID   int64 `bun:"tenant_id"`
	CategoryID int64 `bun:"category_id"`
	EventID    int64 `bun:"event_id"`
	ChannelID  int64 `bun:"channel_id"`
}

type userPreferenceModel struct {
	bun.BaseModel `bun:"table:user_preferences"`

	ID         int64 `bun:"user_pref_id,pk,autoincrement"`
	UserID     int64 `bun:"user_id"`
	TenantID   int64 `bun:"tenant_id"`
	CategoryID int64 `bun:"category_id"`
	EventID    int64 `bun:"event_id"`
	ChannelID  int64 `bun:"channel_id"`
}

// preferenceRowModel is the scan target of the joined tree query.
type preferenceRowModel struct {
	TenantID     int64  `bun:"tenant_id"`
	CategoryID   int64  `bun:"category_id"`
	CategoryName string `bun:"category_name"`
	EventID      int64  `bun:"event_id"`
	EventName    string `bun:"event_name"`
	ChannelID    int64  `bun:"channel_id"`
	ChannelName  string `bun:"channel_name"`
}

func (m preferenceRowModel) toDomain() domain.PreferenceRow {
	return domain.PreferenceRow(m)
}
