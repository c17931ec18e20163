package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billingSubmission() []CategoryBlock {
	return []CategoryBlock{
		{CategoryID: 10, Events: []EventBlock{
			{EventID: 100, Channels: []ChannelRef{{ChannelID: 1}, {ChannelID: 2}}},
			{EventID: 101, Channels: []ChannelRef{{ChannelID: 1}}},
		}},
		{CategoryID: 20, Events: []EventBlock{
			{EventID: 200, Channels: []ChannelRef{}},
			{EventID: 201, Channels: []ChannelRef{{ChannelID: 3}}},
		}},
	}
}

func TestLeafCount(t *testing.T) {
	assert.Equal(t, 0, LeafCount(nil))
	assert.Equal(t, 4, LeafCount(billingSubmission()))
}

func TestFlattenTenant(t *testing.T) {
	rows := FlattenTenant(7, billingSubmission())
	require.Len(t, rows, LeafCount(billingSubmission()))
	assert.Equal(t, []TenantPreference{
		{TenantID: 7, CategoryID: 10, EventID: 100, ChannelID: 1},
		{TenantID: 7, CategoryID: 10, EventID: 100, ChannelID: 2},
		{TenantID: 7, CategoryID: 10, EventID: 101, ChannelID: 1},
		{TenantID: 7, CategoryID: 20, EventID: 201, ChannelID: 3},
	}, rows)
}

func TestFlattenUser(t *testing.T) {
	rows := FlattenUser(42, 7, billingSubmission())
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, int64(42), r.UserID)
		assert.Equal(t, int64(7), r.TenantID)
	}
	assert.Equal(t, int64(3), rows[3].ChannelID)
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	rows := []PreferenceRow{
		{CategoryID: 20, CategoryName: "Security", EventID: 200, EventName: "Login", ChannelID: 3, ChannelName: "Push"},
		{CategoryID: 10, CategoryName: "Billing", EventID: 100, EventName: "Invoice Created", ChannelID: 1, ChannelName: "Email"},
		{CategoryID: 20, CategoryName: "Security", EventID: 201, EventName: "Password Reset", ChannelID: 1, ChannelName: "Email"},
		{CategoryID: 10, CategoryName: "Billing", EventID: 100, EventName: "Invoice Created", ChannelID: 2, ChannelName: "SMS"},
		{CategoryID: 20, CategoryName: "Security", EventID: 200, EventName: "Login", ChannelID: 1, ChannelName: "Email"},
	}
	tree := Aggregate(rows)

	require.Len(t, tree, 2)
	assert.Equal(t, int64(20), tree[0].CategoryID)
	assert.Equal(t, int64(10), tree[1].CategoryID)

	require.Len(t, tree[0].Events, 2)
	assert.Equal(t, int64(200), tree[0].Events[0].EventID)
	assert.Equal(t, []ChannelNode{{3, "Push"}, {1, "Email"}}, tree[0].Events[0].Channels)
	assert.Equal(t, int64(201), tree[0].Events[1].EventID)

	require.Len(t, tree[1].Events, 1)
	assert.Equal(t, []ChannelNode{{1, "Email"}, {2, "SMS"}}, tree[1].Events[0].Channels)
}

func TestAggregate_DuplicateRowsKeepDuplicateChannels(t *testing.T) {
	row := PreferenceRow{CategoryID: 10, CategoryName: "Billing", EventID: 100, EventName: "Invoice Created", ChannelID: 1, ChannelName: "Email"}
	tree := Aggregate([]PreferenceRow{row, row})

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Events, 1)
	assert.Equal(t, []ChannelNode{{1, "Email"}, {1, "Email"}}, tree[0].Events[0].Channels)
}

func TestAggregate_EmptyEncodesAsArray(t *testing.T) {
	b, err := json.Marshal(TenantPreferences{TenantID: 1, TenantName: "Acme", Preferences: Aggregate(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tenant_id":1,"tenant_name":"Acme","preferences":[]}`, string(b))
}

func TestFlattenThenAggregate_PreservesTriples(t *testing.T) {
	blocks := billingSubmission()
	var rows []PreferenceRow
	for _, p := range FlattenTenant(1, blocks) {
		rows = append(rows, PreferenceRow{TenantID: p.TenantID, CategoryID: p.CategoryID, EventID: p.EventID, ChannelID: p.ChannelID})
	}
	tree := Aggregate(rows)

	type triple struct{ c, e, ch int64 }
	var got []triple
	for _, c := range tree {
		for _, e := range c.Events {
			for _, ch := range e.Channels {
				got = append(got, triple{c.CategoryID, e.EventID, ch.ChannelID})
			}
		}
	}
	assert.Equal(t, []triple{{10, 100, 1}, {10, 100, 2}, {10, 101, 1}, {20, 201, 3}}, got)
}
