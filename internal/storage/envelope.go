package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"chacara-backend/internal/domain"
)

// SnapshotVersion is written into every envelope. Bump it when a collection
// changes shape and teach Decode to upgrade the older form.
const SnapshotVersion = 1

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Encode wraps v in a versioned envelope.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return json.Marshal(envelope{Version: SnapshotVersion, Data: data})
}

// Decode unwraps an envelope into v. Data written without an envelope is read
// as version 0: the current schema, just not wrapped. No other layout is
// translated.
func Decode(raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	var env envelope
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return fmt.Errorf("failed to decode snapshot envelope: %w", err)
		}
	}

	if env.Version == 0 && env.Data == nil {
		if err := json.Unmarshal(trimmed, v); err != nil {
			return fmt.Errorf("failed to decode unversioned snapshot: %w", err)
		}
		return nil
	}

	if env.Version > SnapshotVersion {
		return fmt.Errorf("%w: %d", domain.ErrUnsupportedVersion, env.Version)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to decode snapshot data: %w", err)
	}
	return nil
}
