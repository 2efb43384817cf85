package xuuid

import (
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewProducesWellFormedV4(t *testing.T) {
	id := New()
	if !uuidPattern.MatchString(id.String()) {
		t.Fatalf("generated UUID %q does not match RFC 4122 v4 pattern", id.String())
	}
}

func TestNewProducesUniqueValues(t *testing.T) {
	seen := make(map[UUID]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate UUID generated: %s", id)
		}
		seen[id] = true
	}
}
