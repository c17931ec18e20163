package preferences

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/seed"
	"example.com/notifprefs/internal/storage"
	"example.com/notifprefs/internal/storage/sqlite"
)

var reference = &seed.File{
	Tenants: []domain.Tenant{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}},
	Categories: []domain.Category{
		{ID: 10, Name: "Billing"},
		{ID: 20, Name: "Security"},
	},
	Events: []domain.Event{
		{ID: 100, CategoryID: 10, Name: "Invoice Created"},
		{ID: 101, CategoryID: 10, Name: "Payment Failed"},
		{ID: 200, CategoryID: 20, Name: "New Login"},
	},
	Channels: []domain.Channel{
		{ID: 1, Name: "Email"},
		{ID: 2, Name: "SMS"},
		{ID: 3, Name: "Push"},
	},
}

func newTestService(t *testing.T) (*Service, *sqlite.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	_, err = seed.Apply(ctx, db, reference)
	require.NoError(t, err)
	return NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

func countRows(t *testing.T, db *sqlite.DB, tenantID int64) int {
	t.Helper()
	var n int
	err := db.InTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		rows, err := tx.TenantPreferenceRows(ctx, tenantID)
		n = len(rows)
		return err
	})
	require.NoError(t, err)
	return n
}

func blocks(bs ...domain.CategoryBlock) []domain.CategoryBlock { return bs }

func category(id int64, events ...domain.EventBlock) domain.CategoryBlock {
	return domain.CategoryBlock{CategoryID: id, Events: events}
}

func event(id int64, channels ...int64) domain.EventBlock {
	e := domain.EventBlock{EventID: id, Channels: []domain.ChannelRef{}}
	for _, c := range channels {
		e.Channels = append(e.Channels, domain.ChannelRef{ChannelID: c})
	}
	return e
}

func TestTenantPreferences_BillingScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	n, err := svc.CreateTenantPreferences(ctx, 1, domain.TenantSubmission{
		Preferences: blocks(category(10, event(100, 1, 2))),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := svc.TenantPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.TenantPreferences{
		TenantID:   1,
		TenantName: "Acme",
		Preferences: []domain.CategoryNode{{
			CategoryID:   10,
			CategoryName: "Billing",
			Events: []domain.EventNode{{
				EventID:   100,
				EventName: "Invoice Created",
				Channels: []domain.ChannelNode{
					{ChannelID: 1, ChannelName: "Email"},
					{ChannelID: 2, ChannelName: "SMS"},
				},
			}},
		}},
	}, got)
}

func TestCreateTenantPreferences_RowCountEqualsLeaves(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	sub := domain.TenantSubmission{Preferences: blocks(
		category(10, event(100, 1, 2, 3), event(101)),
		category(20, event(200, 3)),
		category(10, event(101, 1)),
	)}
	n, err := svc.CreateTenantPreferences(ctx, 2, sub)
	require.NoError(t, err)
	assert.Equal(t, int64(domain.LeafCount(sub.Preferences)), n)
	assert.Equal(t, 5, countRows(t, db, 2))

	got, err := svc.TenantPreferences(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got.Preferences, 2, "category 10 submitted twice folds into one node")
	assert.Len(t, got.Preferences[0].Events, 2)
}

func TestCreateTenantPreferences_Rejections(t *testing.T) {
	cases := []struct {
		name     string
		tenantID int64
		blocks   []domain.CategoryBlock
		kind     error
		detail   string
	}{
		{"missing tenant", 9, blocks(category(10, event(100, 1))), domain.ErrNotFound, "Tenant with ID 9 not found"},
		{"missing category", 1, blocks(category(10, event(100, 1)), category(30, event(100, 1))), domain.ErrInvalidReference, "Category 30 not found"},
		{"missing event", 1, blocks(category(10, event(999, 1))), domain.ErrInvalidReference, "Event 999 not found"},
		{"event in wrong category", 1, blocks(category(10, event(100, 1)), category(20, event(101, 1))), domain.ErrInvalidReference, "Event 101 does not belong to category 20"},
		{"missing channel", 1, blocks(category(10, event(100, 1, 2)), category(20, event(200, 3, 4))), domain.ErrInvalidReference, "Channel 4 not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, db := newTestService(t)
			n, err := svc.CreateTenantPreferences(context.Background(), tc.tenantID, domain.TenantSubmission{Preferences: tc.blocks})
			require.Error(t, err)
			assert.Zero(t, n)
			assert.ErrorIs(t, err, tc.kind)

			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.detail, de.Detail)

			assert.Zero(t, countRows(t, db, 1), "nothing may be written")
		})
	}
}

func TestCreateTenantPreferences_EmptySubmission(t *testing.T) {
	svc, _ := newTestService(t)
	n, err := svc.CreateTenantPreferences(context.Background(), 1, domain.TenantSubmission{Preferences: blocks()})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTenantPreferences_ExistingTenantWithoutRows(t *testing.T) {
	svc, _ := newTestService(t)
	got, err := svc.TenantPreferences(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.TenantName)
	assert.NotNil(t, got.Preferences)
	assert.Empty(t, got.Preferences)

	_, err = svc.TenantPreferences(context.Background(), 77)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantPreferences_DuplicateSubmissions(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	sub := domain.TenantSubmission{Preferences: blocks(category(10, event(100, 1)))}

	for i := 0; i < 2; i++ {
		_, err := svc.CreateTenantPreferences(ctx, 1, sub)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, countRows(t, db, 1))

	got, err := svc.TenantPreferences(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Preferences, 1)
	require.Len(t, got.Preferences[0].Events, 1)
	assert.Equal(t, []domain.ChannelNode{
		{ChannelID: 1, ChannelName: "Email"},
		{ChannelID: 1, ChannelName: "Email"},
	}, got.Preferences[0].Events[0].Channels)
}

func TestUserPreferences_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.UserPreferences(ctx, 42, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := svc.CreateUserPreferences(ctx, 42, domain.UserSubmission{
		TenantID:    2,
		Preferences: blocks(category(20, event(200, 3)), category(10, event(101, 2))),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.CreateUserPreferences(ctx, 42, domain.UserSubmission{
		TenantID:    1,
		Preferences: blocks(category(10, event(100, 1))),
	})
	require.NoError(t, err)

	got, err := svc.UserPreferences(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, int64(2), got.TenantID, "tenant of the first stored row")
	require.Len(t, got.Preferences, 2)
	assert.Equal(t, int64(20), got.Preferences[0].CategoryID)
	assert.Len(t, got.Preferences[1].Events, 2)

	got, err = svc.UserPreferences(ctx, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TenantID)
	require.Len(t, got.Preferences, 1)

	_, err = svc.UserPreferences(ctx, 43, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateUserPreferences_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateUserPreferences(ctx, 42, domain.UserSubmission{
		TenantID:    8,
		Preferences: blocks(category(10, event(100, 1))),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateUserPreferences(ctx, 42, domain.UserSubmission{
		TenantID:    1,
		Preferences: blocks(category(20, event(100, 1))),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	_, err = svc.UserPreferences(ctx, 42, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound, "rejected submissions write nothing")
}

func TestListReferences(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	channels, err := svc.ListChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, reference.Channels, channels)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, reference.Categories, categories)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, reference.Events, events)
}

type brokenStore struct{ err error }

func (b brokenStore) InTx(context.Context, func(context.Context, storage.Tx) error) error {
	return b.err
}
func (b brokenStore) Ready(context.Context) error { return b.err }
func (b brokenStore) Close() error                { return nil }

func TestService_StorageFailuresPropagate(t *testing.T) {
	cause := errors.New("connection reset")
	svc := NewService(brokenStore{err: cause}, nil)
	ctx := context.Background()

	_, err := svc.CreateTenantPreferences(ctx, 1, domain.TenantSubmission{})
	assert.ErrorIs(t, err, cause)
	_, err = svc.TenantPreferences(ctx, 1)
	assert.ErrorIs(t, err, cause)
	_, err = svc.ListEvents(ctx)
	assert.ErrorIs(t, err, cause)

	var de *domain.Error
	assert.False(t, errors.As(err, &de))
}
