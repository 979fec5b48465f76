package bookingcode

import (
	"regexp"
	"testing"
)

func TestNewCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^RES-[A-Z0-9]{6}$`)
	var g Random
	for i := 0; i < 100; i++ {
		code, err := g.NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q does not match RES-XXXXXX", code)
		}
	}
}

func TestNewCodeVaries(t *testing.T) {
	var g Random
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := g.NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		seen[code] = struct{}{}
	}
	// 36^6 possibilities; 50 draws colliding down to a handful would mean
	// the generator is not using its randomness.
	if len(seen) < 45 {
		t.Fatalf("only %d distinct codes out of 50 draws", len(seen))
	}
}
