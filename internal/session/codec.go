package session

import (
	"encoding/json"
	"fmt"
)

func encode(s *Session) ([]byte, error) {
	if s == nil || s.ID == "" {
		return nil, fmt.Errorf("session: id required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: marshal %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	s.Normalize()
	return &s, nil
}
