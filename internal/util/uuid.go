package util

import "github.com/google/uuid"

// NewTxnID mints a fresh transaction uuid for an outbound message header,
// matching the VS_UUID_STR_FMT framing used on the wire (spec.md §4.1).
func NewTxnID() string {
	return uuid.New().String()
}

// ParseTxnID validates an inbound transaction uuid string and returns it in
// canonical lowercase 8-4-4-4-12 form, so the codec echoes the caller's id
// in that form while still rejecting malformed input early.
func ParseTxnID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
