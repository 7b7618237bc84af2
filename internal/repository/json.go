package repository

import (
	"encoding/json"
	"fmt"
)

// jsonArg encodes v for a jsonb parameter. Text works under every query
// exec mode.
func jsonArg(v interface{}) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json argument: %w", err)
	}
	s := string(b)
	if s == "null" {
		return nil, nil
	}
	return &s, nil
}

// decodeJSON unmarshals a scanned jsonb column; NULL leaves dst untouched.
func decodeJSON(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}
