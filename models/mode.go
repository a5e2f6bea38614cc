package models

import (
	"encoding/json"
	"fmt"
)

// NewRecordID is the sentinel identifier the loader asks for when no record
// exists yet. The API answers it with 404.
const NewRecordID int64 = 0

// Mode says whether a form creates a new record or updates an existing one.
// The zero value is create mode.
type Mode struct {
	update bool
	id     int64
}

func CreateMode() Mode { return Mode{} }

func UpdateMode(id int64) Mode { return Mode{update: true, id: id} }

func (m Mode) IsUpdate() bool { return m.update }

// ID returns the record identifier in update mode.
func (m Mode) ID() (int64, bool) {
	return m.id, m.update
}

// LoadID is the identifier the loader fetches on mount.
func (m Mode) LoadID() int64 {
	if m.update {
		return m.id
	}
	return NewRecordID
}

func (m Mode) String() string {
	if m.update {
		return "update"
	}
	return "create"
}

type modeJSON struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id,omitempty"`
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(modeJSON{Kind: m.String(), ID: m.id})
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var raw modeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "create":
		*m = CreateMode()
	case "update":
		*m = UpdateMode(raw.ID)
	default:
		return fmt.Errorf("unknown form mode %q", raw.Kind)
	}
	return nil
}
