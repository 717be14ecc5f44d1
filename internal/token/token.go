// Package token generates the opaque identifiers the server hands out: game
// ids (time-ordered, so storage sorts nicely) and seat credentials (pure
// entropy, compared in constant time).
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"time"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// NewGameID creates a new game id: a UUIDv7 encoded as a 26-character
// base32 string.
func NewGameID() string {
	var uuid [16]byte

	// 48-bit millisecond timestamp, then version/variant bits over
	// random data per the UUIDv7 layout.
	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	mustRead(uuid[6:])
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return encodeBase32(uuid)
}

// NewCredential creates an opaque high-entropy credential bound to a seat
// for the lifetime of a game. All 128 bits are random.
func NewCredential() string {
	var raw [16]byte
	mustRead(raw[:])
	return encodeBase32(raw)
}

// Equal compares a presented credential against the stored one without
// leaking timing information.
func Equal(presented, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

// Validate checks that an id or credential is 26 characters of the base32
// alphabet.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("token must be exactly 26 characters, got %d", len(id))
	}
	for i, char := range id {
		valid := false
		for _, validChar := range alphabet {
			if char == validChar {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}

func mustRead(b []byte) {
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
}

// encodeBase32 encodes 128 bits as a 26-character base32 string, 5 bits per
// character.
func encodeBase32(data [16]byte) string {
	result := make([]byte, 26)

	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8

		if byteIndex < 16 {
			if bitIndex <= 3 {
				// All 5 bits are in the same byte
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				// Bits span two bytes
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}

		result[i] = alphabet[value]
	}

	return string(result)
}
