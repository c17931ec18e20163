// Package seed loads reference data (tenants, categories, events and
// channels) from a YAML document and upserts it through a storage.Store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

// File is the YAML layout of a seed document.
type File struct {
	Tenants    []domain.Tenant   `yaml:"tenants"`
	Categories []domain.Category `yaml:"categories"`
	Events     []domain.Event    `yaml:"events"`
	Channels   []domain.Channel  `yaml:"channels"`
}

// Counts reports how many rows of each kind were upserted.
type Counts struct {
	Tenants    int
	Categories int
	Events     int
	Channels   int
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Validate checks ids and names, and that every event points at a category
// declared in the same file.
func (f *File) Validate() error {
	var errs []error
	check := func(kind string, i int, id int64, name string) {
		if id <= 0 {
			errs = append(errs, fmt.Errorf("%s[%d]: id must be positive", kind, i))
		}
		if name == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: name required", kind, i))
		}
	}
	for i, t := range f.Tenants {
		check("tenants", i, t.ID, t.Name)
	}
	categories := make(map[int64]bool, len(f.Categories))
	for i, c := range f.Categories {
		check("categories", i, c.ID, c.Name)
		categories[c.ID] = true
	}
	for i, ch := range f.Channels {
		check("channels", i, ch.ID, ch.Name)
	}
	for i, e := range f.Events {
		check("events", i, e.ID, e.Name)
		if !categories[e.CategoryID] {
			errs = append(errs, fmt.Errorf("events[%d]: category %d not declared", i, e.CategoryID))
		}
	}
	return errors.Join(errs...)
}

// Apply upserts everything in f in one transaction. Categories go in before
// events so the events' foreign keys resolve.
func Apply(ctx context.Context, store storage.Store, f *File) (Counts, error) {
	var c Counts
	err := store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for _, t := range f.Tenants {
			if err := tx.UpsertTenant(ctx, t); err != nil {
				return fmt.Errorf("tenant %d: %w", t.ID, err)
			}
			c.Tenants++
		}
		for _, cat := range f.Categories {
			if err := tx.UpsertCategory(ctx, cat); err != nil {
				return fmt.Errorf("category %d: %w", cat.ID, err)
			}
			c.Categories++
		}
		for _, ch := range f.Channels {
			if err := tx.UpsertChannel(ctx, ch); err != nil {
				return fmt.Errorf("channel %d: %w", ch.ID, err)
			}
			c.Channels++
		}
		for _, e := range f.Events {
			if err := tx.UpsertEvent(ctx, e); err != nil {
				return fmt.Errorf("event %d: %w", e.ID, err)
			}
			c.Events++
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return c, nil
}
