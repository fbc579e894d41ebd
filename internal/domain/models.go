package domain

import (
	"encoding/json"
	"fmt"
)

// Domain contains core models shared by the hero client and the CLI.

// Hero is a record served by the heroes backend. Fields other than id and
// name are kept verbatim in Extra and sent back unchanged.
type Hero struct {
	ID    int
	Name  string
	Extra map[string]json.RawMessage
}

// Ref names a hero by id. Both ID and Hero satisfy it.
type Ref interface {
	HeroID() int
}

// ID is a bare hero id.
type ID int

func (id ID) HeroID() int { return int(id) }

func (h Hero) HeroID() int { return h.ID }

// WithoutID returns a copy of h with the id cleared, as sent on create.
func (h Hero) WithoutID() Hero {
	h.ID = 0
	return h
}

// MarshalJSON writes id (when set), name and every pass-through field.
func (h Hero) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Extra)+2)
	for k, v := range h.Extra {
		out[k] = v
	}
	delete(out, "id")
	if h.ID != 0 {
		out["id"] = h.ID
	}
	out["name"] = h.Name
	return json.Marshal(out)
}

// UnmarshalJSON reads id and name and keeps the remaining fields as raw JSON.
func (h *Hero) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded Hero
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &decoded.ID); err != nil {
			return fmt.Errorf("decode hero id: %w", err)
		}
		delete(raw, "id")
	}
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &decoded.Name); err != nil {
			return fmt.Errorf("decode hero name: %w", err)
		}
		delete(raw, "name")
	}
	if len(raw) > 0 {
		decoded.Extra = raw
	}

	*h = decoded
	return nil
}
