package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
	"example.com/notifprefs/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile("testdata/reference.yaml")
	require.NoError(t, err)
	assert.Len(t, f.Tenants, 2)
	assert.Equal(t, domain.Event{ID: 100, CategoryID: 10, Name: "Invoice Created"}, f.Events[0])
	assert.Equal(t, domain.Channel{ID: 2, Name: "SMS"}, f.Channels[1])
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":       "tenants:\n  - tenant_id: 1\n    name: x\n",
		"non-positive id":     "tenants:\n  - tenant_id: 0\n    tenant_name: x\n",
		"missing name":        "channels:\n  - channel_id: 1\n",
		"undeclared category": "events:\n  - event_id: 1\n    category_id: 9\n    event_name: x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Tenants)
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	f, err := LoadFile("testdata/reference.yaml")
	require.NoError(t, err)

	counts, err := Apply(ctx, store, f)
	require.NoError(t, err)
	assert.Equal(t, Counts{Tenants: 2, Categories: 2, Events: 3, Channels: 3}, counts)

	f.Channels[0].Name = "E-mail"
	_, err = Apply(ctx, store, f)
	require.NoError(t, err)

	err = store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		channels, err := tx.Channels(ctx)
		require.NoError(t, err)
		require.Len(t, channels, 3)
		assert.Equal(t, "E-mail", channels[0].Name)

		ev, err := tx.Event(ctx, 200)
		require.NoError(t, err)
		assert.Equal(t, int64(20), ev.CategoryID)
		return nil
	})
	require.NoError(t, err)
}
