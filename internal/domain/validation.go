package domain

import (
	"fmt"
)

// MaxSubmissionRows caps how many rows one submission may expand to. Six
// columns per user row keeps a single bulk insert under the 65535 bind
// parameter limit of the postgres wire protocol.
const MaxSubmissionRows = 10_000

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidateTenantSubmission performs structural checks only. Whether the
// referenced ids exist is decided against storage.
func ValidateTenantSubmission(s *TenantSubmission) []FieldError {
	return validateBlocks(s.Preferences)
}

// ValidateUserSubmission additionally requires the owning tenant id.
func ValidateUserSubmission(s *UserSubmission) []FieldError {
	var errs []FieldError
	if s.TenantID <= 0 {
		errs = append(errs, FieldError{"tenant_id", "required positive integer"})
	}
	return append(errs, validateBlocks(s.Preferences)...)
}

func validateBlocks(blocks []CategoryBlock) []FieldError {
	if blocks == nil {
		return []FieldError{{"preferences", "required"}}
	}
	var errs []FieldError
	for i, c := range blocks {
		cp := fmt.Sprintf("preferences[%d]", i)
		if c.CategoryID <= 0 {
			errs = append(errs, FieldError{cp + ".category_id", "required positive integer"})
		}
		if c.Events == nil {
			errs = append(errs, FieldError{cp + ".events", "required"})
			continue
		}
		for j, e := range c.Events {
			ep := fmt.Sprintf("%s.events[%d]", cp, j)
			if e.EventID <= 0 {
				errs = append(errs, FieldError{ep + ".event_id", "required positive integer"})
			}
			if e.Channels == nil {
				errs = append(errs, FieldError{ep + ".channels", "required"})
				continue
			}
			for k, ch := range e.Channels {
				if ch.ChannelID <= 0 {
					errs = append(errs, FieldError{fmt.Sprintf("%s.channels[%d].channel_id", ep, k), "required positive integer"})
				}
			}
		}
	}
	if n := LeafCount(blocks); n > MaxSubmissionRows {
		errs = append(errs, FieldError{"preferences", fmt.Sprintf("max %d category/event/channel combinations, got %d", MaxSubmissionRows, n)})
	}
	return errs
}
