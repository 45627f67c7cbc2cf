package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

const (
	keyJobID      = "_id"
	keyPostedBy   = "posted_by"
	keyApplicants = "number_of_applicants"
)

// Job represents a job posting. The document is kept exactly as the caller
// sent it; only the id lives outside Doc.
type Job struct {
	ID  string
	Doc map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler. ID wins over a stored _id key.
func (j Job) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(j.Doc)+1)
	for k, v := range j.Doc {
		out[k] = v
	}
	if j.ID != "" {
		id, err := json.Marshal(j.ID)
		if err != nil {
			return nil, err
		}
		out[keyJobID] = id
	} else {
		delete(out, keyJobID)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Any JSON object is accepted.
// A string _id is taken as ID; any other _id is dropped.
func (j *Job) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var id string
	if raw, ok := doc[keyJobID]; ok {
		_ = json.Unmarshal(raw, &id)
		delete(doc, keyJobID)
	}
	j.ID = id
	j.Doc = doc
	return nil
}

// Field returns the raw value stored under key, or nil when absent.
func (j *Job) Field(key string) json.RawMessage {
	return j.Doc[key]
}

// Set stores value under key.
func (j *Job) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if j.Doc == nil {
		j.Doc = make(map[string]json.RawMessage)
	}
	j.Doc[key] = raw
	return nil
}

// OwnerEmail returns posted_by.email, or "" when it is missing or not a string.
func (j *Job) OwnerEmail() string {
	var poster struct {
		Email json.RawMessage `json:"email"`
	}
	if err := json.Unmarshal(j.Doc[keyPostedBy], &poster); err != nil {
		return ""
	}
	var email string
	if err := json.Unmarshal(poster.Email, &email); err != nil {
		return ""
	}
	return email
}

// ApplicantCount returns number_of_applicants rounded to an integer. A
// missing or non-numeric value counts as zero, matching the store's atomic
// increment.
func (j *Job) ApplicantCount() int64 {
	raw := bytes.TrimSpace(j.Doc[keyApplicants])
	if len(raw) == 0 || raw[0] == '"' {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}

// SetApplicantCount stores n as number_of_applicants.
func (j *Job) SetApplicantCount(n int64) {
	if j.Doc == nil {
		j.Doc = make(map[string]json.RawMessage)
	}
	j.Doc[keyApplicants] = json.RawMessage(strconv.FormatInt(n, 10))
}

// JobFields is the set of job fields written by an upsert. Values are kept
// verbatim; absent fields are written as JSON null and keys outside this set
// are never written.
type JobFields struct {
	JobTitle           json.RawMessage `json:"job_title"`
	JobImg             json.RawMessage `json:"job_img"`
	JobCategory        json.RawMessage `json:"job_category"`
	JobDescription     json.RawMessage `json:"job_description"`
	NumberOfApplicants json.RawMessage `json:"number_of_applicants"`
	Deadline           json.RawMessage `json:"deadline"`
	SalaryRange        json.RawMessage `json:"salary_range"`

	// Owner, when set, is recorded as posted_by.email if the upsert
	// inserts a new job. Existing jobs keep their poster.
	Owner string `json:"-"`
}

// Document returns the seven recognised keys with null for absent values.
func (f JobFields) Document() map[string]json.RawMessage {
	null := json.RawMessage("null")
	orNull := func(v json.RawMessage) json.RawMessage {
		if len(v) == 0 {
			return null
		}
		return v
	}
	return map[string]json.RawMessage{
		"job_title":       orNull(f.JobTitle),
		"job_img":         orNull(f.JobImg),
		"job_category":    orNull(f.JobCategory),
		"job_description": orNull(f.JobDescription),
		keyApplicants:     orNull(f.NumberOfApplicants),
		"deadline":        orNull(f.Deadline),
		"salary_range":    orNull(f.SalaryRange),
	}
}

// OwnerDocument returns the posted_by document recorded on insert, or an
// empty object when Owner is not set.
func (f JobFields) OwnerDocument() map[string]any {
	if f.Owner == "" {
		return map[string]any{}
	}
	return map[string]any{keyPostedBy: map[string]string{"email": f.Owner}}
}
