package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// LoadJSON reads key and decodes it into v. It reports false when the key
// is absent or holds malformed JSON; a malformed value is logged and left
// in place to be overwritten by the next successful write. Storage errors
// other than ErrNotFound are returned.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("store: ignoring malformed value", "key", key, "err", err)
		return false, nil
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// LoadString reads a plain string value. Absent keys yield "". A value
// written as a JSON string is unquoted so both encodings read the same.
func LoadString(ctx context.Context, s Store, key string) (string, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	v := strings.TrimSpace(string(data))
	if len(v) >= 2 && v[0] == '"' {
		var unquoted string
		if json.Unmarshal([]byte(v), &unquoted) == nil {
			return unquoted, nil
		}
	}
	return v, nil
}

// SaveString stores v verbatim.
func SaveString(ctx context.Context, s Store, key, v string) error {
	if err := s.Set(ctx, key, []byte(v)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
