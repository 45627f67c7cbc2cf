// Package model defines domain entities for the application.
package model

import "encoding/json"

// Documents are stored as JSON objects. Applications and premium records
// decode the keys the server acts on into typed fields and keep every other
// top-level key in an Extra map, so caller-supplied fields survive a round
// trip unchanged. Jobs and stories keep the whole document raw.

// decodeDocument unmarshals data into known and returns the top-level keys
// that are not listed in knownKeys.
func decodeDocument(data []byte, known any, knownKeys ...string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeDocument marshals known and merges extra into the resulting object.
// Typed fields win over extra keys of the same name.
func encodeDocument(known any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
