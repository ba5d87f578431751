package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJoinMapKeys tests joining map keys into a deterministic list
func TestJoinMapKeys(t *testing.T) {
	m := map[string]struct{}{
		"pretty": {},
		"json":   {},
		"auto":   {},
	}
	assert.Equal(t, "auto, json, pretty", JoinMapKeys(m))

	assert.Equal(t, "", JoinMapKeys(map[string]struct{}{}))
}

// TestIsTerminal tests that a regular file is not reported as a terminal
func TestIsTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
}
