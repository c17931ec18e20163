package domain

// Reference entities. They are seeded outside the preference endpoints and
// only ever read by them.
type Tenant struct {
	ID   int64  `json:"tenant_id" yaml:"tenant_id"`
	Name string `json:"tenant_name" yaml:"tenant_name"`
}

type Category struct {
	ID   int64  `json:"category_id" yaml:"category_id"`
	Name string `json:"category_name" yaml:"category_name"`
}

// Event belongs to exactly one category.
type Event struct {
	ID         int64  `json:"event_id" yaml:"event_id"`
	CategoryID int64  `json:"category_id" yaml:"category_id"`
	Name       string `json:"event_name" yaml:"event_name"`
}

type Channel struct {
	ID   int64  `json:"channel_id" yaml:"channel_id"`
	Name string `json:"channel_name" yaml:"channel_name"`
}

// TenantPreference is one tenant_preferences row: the tenant wants ChannelID
// for EventID in CategoryID. ID is assigned by storage.
type TenantPreference struct {
	ID         int64
	TenantID   int64
	CategoryID int64
	EventID    int64
	ChannelID  int64
}

// UserPreference is one user_preferences row. UserID is not validated
// against any table.
type UserPreference struct {
	ID         int64
	UserID     int64
	TenantID   int64
	CategoryID int64
	EventID    int64
	ChannelID  int64
}

// PreferenceRow is a stored preference joined with the names of the rows it
// references, in storage id order.
type PreferenceRow struct {
	TenantID     int64
	CategoryID   int64
	CategoryName string
	EventID      int64
	EventName    string
	ChannelID    int64
	ChannelName  string
}

// --- Submissions ---

type ChannelRef struct {
	ChannelID int64 `json:"channel_id"`
}

type EventBlock struct {
	EventID  int64        `json:"event_id"`
	Channels []ChannelRef `json:"channels"`
}

type CategoryBlock struct {
	CategoryID int64        `json:"category_id"`
	Events     []EventBlock `json:"events"`
}

// TenantSubmission is the body of POST /tenants/{tenant_id}/preferences.
type TenantSubmission struct {
	Preferences []CategoryBlock `json:"preferences"`
}

// UserSubmission is the body of POST /users/{user_id}/preferences. The
// owning tenant comes from the body, the user from the path.
type UserSubmission struct {
	TenantID    int64           `json:"tenant_id"`
	Preferences []CategoryBlock `json:"preferences"`
}

// --- Read trees ---

type ChannelNode struct {
	ChannelID   int64  `json:"channel_id"`
	ChannelName string `json:"channel_name"`
}

type EventNode struct {
	EventID   int64         `json:"event_id"`
	EventName string        `json:"event_name"`
	Channels  []ChannelNode `json:"channels"`
}

type CategoryNode struct {
	CategoryID   int64       `json:"category_id"`
	CategoryName string      `json:"category_name"`
	Events       []EventNode `json:"events"`
}

type TenantPreferences struct {
	TenantID    int64          `json:"tenant_id"`
	TenantName  string         `json:"tenant_name"`
	Preferences []CategoryNode `json:"preferences"`
}

type UserPreferences struct {
	UserID      int64          `json:"user_id"`
	TenantID    int64          `json:"tenant_id"`
	Preferences []CategoryNode `json:"preferences"`
}
