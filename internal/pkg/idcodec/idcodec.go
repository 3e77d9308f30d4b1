// Package idcodec converts internal UUID keys to the short opaque tokens
// surfaced in API payloads, query parameters and deep links.
package idcodec

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalid is returned when a token is neither an encoded id nor a UUID.
var ErrInvalid = errors.New("invalid id token")

var enc = base64.RawURLEncoding

// Encode returns the 22-character token for a UUID. Values that are not UUIDs
// are returned unchanged so legacy keys keep working in links.
func Encode(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return enc.EncodeToString(u[:])
}

// Decode reverses Encode. A canonical UUID string is accepted as-is.
func Decode(token string) (string, error) {
	if len(token) == enc.EncodedLen(16) {
		b, err := enc.DecodeString(token)
		if err == nil {
			u, err := uuid.FromBytes(b)
			if err == nil {
				return u.String(), nil
			}
		}
	}
	if u, err := uuid.Parse(token); err == nil {
		return u.String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalid, token)
}

// DecodeAll decodes every token, stopping at the first failure.
func DecodeAll(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		id, err := Decode(t)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
