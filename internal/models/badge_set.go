package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// BadgeSet maps a badge code to the moment it was unlocked.
type BadgeSet map[string]time.Time

func (b BadgeSet) Has(code string) bool {
	_, ok := b[code]
	return ok
}

// Codes returns the unlocked codes in lexical order.
func (b BadgeSet) Codes() []string {
	codes := make([]string, 0, len(b))
	for code := range b {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy.
func (b BadgeSet) Clone() BadgeSet {
	out := make(BadgeSet, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (b BadgeSet) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]time.Time(b))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *BadgeSet) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*b = BadgeSet{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported badge set source %T", value)
	}
	m := map[string]time.Time{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = m
	return nil
}
