package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlias(t *testing.T) {
	cases := map[int]string{
		1:   "A",
		2:   "B",
		26:  "Z",
		27:  "AA",
		28:  "AB",
		52:  "AZ",
		53:  "BA",
		702: "ZZ",
		703: "AAA",
	}
	for n, want := range cases {
		assert.Equal(t, want, Alias(n), "Alias(%d)", n)
	}
	assert.Equal(t, "", Alias(0))
}

func TestAliasAllocator_Fresh(t *testing.T) {
	var a AliasAllocator
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		alias := a.Next()
		assert.False(t, seen[alias], "alias %s handed out twice", alias)
		seen[alias] = true
	}
	assert.Equal(t, 100, a.Allocated())

	var other AliasAllocator
	assert.Equal(t, "A", other.Next())
}
