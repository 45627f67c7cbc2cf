package model

import "encoding/json"

// Premium is a premium subscription record keyed by the subscriber email.
// Email is not unique: every purchase stores a new record.
type Premium struct {
	ID    string                     `json:"_id,omitempty"`
	Email string                     `json:"email"`
	Extra map[string]json.RawMessage `json:"-"`
}

type premiumFields Premium

// MarshalJSON implements json.Marshaler.
func (p Premium) MarshalJSON() ([]byte, error) {
	return encodeDocument(premiumFields(p), p.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Premium) UnmarshalJSON(data []byte) error {
	var f premiumFields
	extra, err := decodeDocument(data, &f, "_id", "email")
	if err != nil {
		return err
	}
	*p = Premium(f)
	p.Extra = extra
	return nil
}
