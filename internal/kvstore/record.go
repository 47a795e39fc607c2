package kvstore

import (
	"context"
	"encoding/json"
)

// SchemaVersion is bumped whenever any stored shape changes in a way old
// readers cannot handle. Records written under a different version are
// treated as absent rather than decoded into a mismatched shape.
const SchemaVersion = 1

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// PutJSON stores v under key wrapped in the versioned envelope.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{V: SchemaVersion, Data: data})
	if err != nil {
		return err
	}
	return s.Put(ctx, key, raw)
}

// GetJSON loads the value under key into out. Missing keys, malformed
// envelopes and version mismatches all return ErrNotFound.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ErrNotFound
	}
	if env.V != SchemaVersion {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return ErrNotFound
	}
	return nil
}
