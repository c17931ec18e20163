package postgres

import (
	"context"
	"fmt"
	"strings"

	"example.com/notifprefs/internal/domain"
)

// insertRows builds one multi-row INSERT for n rows of len(cols) values.
// There is no ON CONFLICT clause: preference tuples are not unique.
func (t *Tx) insertRows(ctx context.Context, table string, cols []string, n int, values func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, n)
	args := make([]any, 0, n*len(cols))

	argi := 1
	for i := 0; i < n; i++ {
		ph := make([]string, 0, len(cols))
		for _, v := range values(i) {
			args = append(args, v)
			ph = append(ph, fmt.Sprintf("$%d", argi))
			argi++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO " + table + " (" + strings.Join(cols, ",") + ") VALUES " +
		strings.Join(placeholders, ",")

	ct, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return ct.RowsAffected(), nil
}

func (t *Tx) InsertTenantPreferences(ctx context.Context, rows []domain.TenantPreference) (int64, error) {
	cols := []string{"tenant_id", "category_id", "event_id", "channel_id"}
	return t.insertRows(ctx, "tenant_preferences", cols, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.TenantID, r.CategoryID, r.EventID, r.ChannelID}
	})
}

func (t *Tx) InsertUserPreferences(ctx context.Context, rows []domain.UserPreference) (int64, error) {
	cols := []string{"user_id", "tenant_id", "category_id", "event_id", "channel_id"}
	return t.insertRows(ctx, "user_preferences", cols, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.UserID, r.TenantID, r.CategoryID, r.EventID, r.ChannelID}
	})
}
