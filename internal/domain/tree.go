package domain

// LeafCount returns the number of (category, event, channel) combinations in
// blocks, which is the number of rows a submission expands to.
func LeafCount(blocks []CategoryBlock) int {
	n := 0
	for _, c := range blocks {
		for _, e := range c.Events {
			n += len(e.Channels)
		}
	}
	return n
}

func walkLeaves(blocks []CategoryBlock, fn func(categoryID, eventID, channelID int64)) {
	for _, c := range blocks {
		for _, e := range c.Events {
			for _, ch := range e.Channels {
				fn(c.CategoryID, e.EventID, ch.ChannelID)
			}
		}
	}
}

// FlattenTenant expands a submission into one row per leaf, in submission order.
func FlattenTenant(tenantID int64, blocks []CategoryBlock) []TenantPreference {
	out := make([]TenantPreference, 0, LeafCount(blocks))
	walkLeaves(blocks, func(categoryID, eventID, channelID int64) {
		out = append(out, TenantPreference{
			TenantID:   tenantID,
			CategoryID: categoryID,
			EventID:    eventID,
			ChannelID:  channelID,
		})
	})
	return out
}

// FlattenUser is FlattenTenant for user-scoped rows.
func FlattenUser(userID, tenantID int64, blocks []CategoryBlock) []UserPreference {
	out := make([]UserPreference, 0, LeafCount(blocks))
	walkLeaves(blocks, func(categoryID, eventID, channelID int64) {
		out = append(out, UserPreference{
			UserID:     userID,
			TenantID:   tenantID,
			CategoryID: categoryID,
			EventID:    eventID,
			ChannelID:  channelID,
		})
	})
	return out
}

type eventKey struct {
	categoryID int64
	eventID    int64
}

// Aggregate folds flat rows into a category -> event -> channel tree.
// Categories and events are deduplicated by id and keep first-seen order.
// Channels are appended once per row, so duplicate rows show up as
// duplicate channel entries. The result is never nil.
func Aggregate(rows []PreferenceRow) []CategoryNode {
	out := make([]CategoryNode, 0)
	categories := make(map[int64]int)
	events := make(map[eventKey]int)

	for _, r := range rows {
		ci, ok := categories[r.CategoryID]
		if !ok {
			ci = len(out)
			categories[r.CategoryID] = ci
			out = append(out, CategoryNode{
				CategoryID:   r.CategoryID,
				CategoryName: r.CategoryName,
				Events:       []EventNode{},
			})
		}
		cat := &out[ci]

		key := eventKey{r.CategoryID, r.EventID}
		ei, ok := events[key]
		if !ok {
			ei = len(cat.Events)
			events[key] = ei
			cat.Events = append(cat.Events, EventNode{
				EventID:   r.EventID,
				EventName: r.EventName,
				Channels:  []ChannelNode{},
			})
		}
		ev := &cat.Events[ei]
		ev.Channels = append(ev.Channels, ChannelNode{
			ChannelID:   r.ChannelID,
			ChannelName: r.ChannelName,
		})
	}
	return out
}
