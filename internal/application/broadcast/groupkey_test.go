package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupKey_Deterministic(t *testing.T) {
	k1 := GroupKey("admin1", "Maintenance", "Site down 10pm")
	k2 := GroupKey("admin1", "Maintenance", "Site down 10pm")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64) // hex-encoded SHA-256
}

func TestGroupKey_DiffersPerField(t *testing.T) {
	base := GroupKey("admin1", "Maintenance", "Site down 10pm")
	assert.NotEqual(t, base, GroupKey("admin2", "Maintenance", "Site down 10pm"))
	assert.NotEqual(t, base, GroupKey("admin1", "Outage", "Site down 10pm"))
	assert.NotEqual(t, base, GroupKey("admin1", "Maintenance", "Site down 11pm"))
}

func TestGroupKey_FieldBoundariesNotAmbiguous(t *testing.T) {
	// Concatenation without a separator would make these collide.
	assert.NotEqual(t, GroupKey("a", "bc", "d"), GroupKey("ab", "c", "d"))
	assert.NotEqual(t, GroupKey("a", "b", "cd"), GroupKey("a", "bc", "d"))
}
