package model

import "encoding/json"

// Story is public, read-only content. Its shape is owned by the content
// editors, so every field other than the id is carried as-is.
type Story struct {
	ID     string
	Fields map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler.
func (s Story) MarshalJSON() ([]byte, error) {
	return encodeDocument(struct {
		ID string `json:"_id,omitempty"`
	}{s.ID}, s.Fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Story) UnmarshalJSON(data []byte) error {
	var f struct {
		ID string `json:"_id"`
	}
	fields, err := decodeDocument(data, &f, "_id")
	if err != nil {
		return err
	}
	s.ID = f.ID
	s.Fields = fields
	return nil
}
