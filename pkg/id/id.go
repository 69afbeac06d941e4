// Package id generates sortable identifiers for submissions and jobs.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U to avoid confusion).
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	timestampChars = 10 // 48-bit millisecond timestamp
	randomChars    = 16 // 80-bit random suffix
)

// New generates a 26-character identifier: a millisecond timestamp prefix
// followed by a random suffix. Identifiers are URL-safe and
// lexicographically sortable by creation time.
func New() string {
	ms := uint64(time.Now().UnixMilli())

	randomBytes := make([]byte, 10)
	if _, err := rand.Read(randomBytes); err != nil {
		// Fallback: time-based entropy (degraded but functional)
		binary.BigEndian.PutUint64(randomBytes[:8], uint64(time.Now().UnixNano()))
	}

	var out [timestampChars + randomChars]byte

	// 48-bit timestamp, 5 bits per char, most significant first.
	for i := timestampChars - 1; i >= 0; i-- {
		out[i] = alphabet[ms&0x1F]
		ms >>= 5
	}

	// 80 random bits consumed 5 at a time across the byte slice.
	bitPos := 0
	for i := 0; i < randomChars; i++ {
		out[timestampChars+i] = alphabet[take5(randomBytes, bitPos)]
		bitPos += 5
	}

	return string(out[:])
}

// take5 extracts 5 bits starting at bit offset pos from b, zero-padding
// past the end of the slice.
func take5(b []byte, pos int) byte {
	var v byte
	for i := 0; i < 5; i++ {
		byteIdx := (pos + i) / 8
		bitIdx := (pos + i) % 8
		v <<= 1
		if byteIdx < len(b) && b[byteIdx]&(0x80>>bitIdx) != 0 {
			v |= 1
		}
	}
	return v
}
