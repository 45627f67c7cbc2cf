package model

import "encoding/json"

// Application is a candidate's application to a job.
// JobID references the job; Email is the applicant and the ownership field.
type Application struct {
	ID    string                     `json:"_id,omitempty"`
	JobID string                     `json:"job_id"`
	Email string                     `json:"email"`
	Extra map[string]json.RawMessage `json:"-"`
}

type applicationFields Application

// MarshalJSON implements json.Marshaler.
func (a Application) MarshalJSON() ([]byte, error) {
	return encodeDocument(applicationFields(a), a.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Application) UnmarshalJSON(data []byte) error {
	var f applicationFields
	extra, err := decodeDocument(data, &f, "_id", "job_id", "email")
	if err != nil {
		return err
	}
	*a = Application(f)
	a.Extra = extra
	return nil
}
