// Package bookingcode issues the short reservation codes printed on guest
// confirmations.  The booking service takes a Generator so tests can pin the
// code instead of drawing a random one.
package bookingcode

import (
	"crypto/rand"
	"fmt"
)

// Prefix precedes every booking code.
const Prefix = "RES-"

// codeLen is the number of random characters after the prefix.
const codeLen = 6

// alphabet holds the characters codes are drawn from.  Uppercase letters and
// digits only, matching the RES-XXXXXX format guests already know.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces a unique booking code for a new reservation.
type Generator interface {
	NewCode() (string, error)
}

// Random draws codes from crypto/rand.  The zero value is ready to use.
type Random struct{}

// NewCode returns a code in the form RES-XXXXXX.
func (Random) NewCode() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("bookingcode: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return Prefix + string(buf), nil
}
