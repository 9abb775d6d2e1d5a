package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"user", "list", "todo", "contact", "sse"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"_"))
			assert.Len(t, id, len(prefix)+1+size)

			for _, c := range strings.TrimPrefix(id, prefix+"_") {
				assert.True(t, strings.ContainsRune(alphabet, c),
					"character %q outside id alphabet", c)
			}
		})
	}
}
