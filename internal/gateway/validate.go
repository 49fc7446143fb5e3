package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgEmail    = "Enter a valid email address."
)

func msgTooLong(max int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", max)
}

func msgMissingRef(id string) string {
	return fmt.Sprintf("Invalid pk %q - object does not exist.", id)
}

// text validates a string field. A nil value means the field was absent
// from the request. Present values must not be blank unless blankOK.
func text(verr *ValidationError, field string, value *string, required, blankOK bool, max int) {
	if value == nil {
		if required {
			verr.Add(field, msgRequired)
		}
		return
	}
	trimmed := strings.TrimSpace(*value)
	if !blankOK && trimmed == "" {
		verr.Add(field, msgBlank)
		return
	}
	if max > 0 && utf8.RuneCountInString(trimmed) > max {
		verr.Add(field, msgTooLong(max))
	}
}

func email(verr *ValidationError, field string, value *string) {
	text(verr, field, value, true, false, 254)
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(*value))
	if err != nil || addr.Address != strings.TrimSpace(*value) {
		verr.Add(field, msgEmail)
	}
}

// refExists checks that an optional reference names an existing row.
func refExists(ctx context.Context, verr *ValidationError, field, id string, load func(context.Context, string) error) error {
	if id == "" {
		return nil
	}
	if checkID(id) != nil {
		verr.Add(field, msgMissingRef(id))
		return nil
	}
	err := load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		verr.Add(field, msgMissingRef(id))
		return nil
	}
	return err
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
