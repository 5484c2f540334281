/*
Package catalog holds the city record model and the bulk loader that turns a
raw catalog file into the record store plus both name indexes.

Records carry arbitrary extra fields (country, population, coordinates and
so on). Only id and name are interpreted here; everything else rides along
as the original serialized bytes, so a record read back from the store is
byte-identical to the input.
*/
package catalog

import (
	"encoding/json"
	"errors"
	"strings"
)

// Record is a single catalog entry. Raw preserves the full original JSON
// object; ID and Name are extracted from it during decoding.
type Record struct {
	ID   int64
	Name string
	Raw  json.RawMessage
}

// UnmarshalJSON extracts the two interpreted fields and keeps the original
// bytes verbatim. A record without an integer id or a non-empty name is
// rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields struct {
		ID   *int64 `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields.ID == nil {
		return errors.New(`record is missing an integer "id" field`)
	}
	if fields.Name == "" {
		return errors.New(`record is missing a "name" field`)
	}
	r.ID = *fields.ID
	r.Name = fields.Name
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the preserved original bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Raw == nil {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// NormalizedName returns the case-folded name, the basis for every index key.
func (r Record) NormalizedName() string {
	return strings.ToLower(r.Name)
}

// Prefixes returns every leading substring of a normalized name, from one
// rune up to the full string. A name of L runes yields exactly L prefixes.
func Prefixes(normalized string) []string {
	runes := []rune(normalized)
	out := make([]string, 0, len(runes))
	for i := 1; i <= len(runes); i++ {
		out = append(out, string(runes[:i]))
	}
	return out
}
