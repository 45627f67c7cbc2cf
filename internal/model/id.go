package model

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// IDLength is the length of a hex-encoded document identifier.
const IDLength = 24

// ErrInvalidID is returned when a string is not a well-formed document identifier.
var ErrInvalidID = errors.New("invalid document identifier")

// NewID generates a 12-byte document identifier: 4 bytes of big-endian Unix
// seconds followed by 8 random bytes, hex-encoded.
// The layout matches the object ids already held by web clients.
func NewID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(time.Now().Unix()))
	_, _ = rand.Read(b[4:])
	return hex.EncodeToString(b[:])
}

// ParseID validates s as a document identifier and returns its canonical
// lowercase form.
func ParseID(s string) (string, error) {
	if len(s) != IDLength {
		return "", ErrInvalidID
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", ErrInvalidID
	}
	return strings.ToLower(s), nil
}

// IsValidID reports whether s parses as a document identifier.
func IsValidID(s string) bool {
	_, err := ParseID(s)
	return err == nil
}
