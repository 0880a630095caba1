package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/tools"
)

func TestPhrasingDefaults(t *testing.T) {
	p := NewPhrasings("")
	for _, family := range []tools.Family{tools.FamilySequence, tools.FamilyAsset, tools.FamilySearch, tools.FamilyEdit} {
		assert.NotEmpty(t, p.Get(family))
	}
	// Unknown family falls back to the edit phrasing.
	assert.Equal(t, p.Get(tools.FamilyEdit), p.Get(tools.Family("mystery")))
}

func TestPhrasingYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrasings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sequence: Custom sequence acknowledgement.\n"), 0644))

	p := NewPhrasings(path)
	assert.Equal(t, "Custom sequence acknowledgement.", p.Get(tools.FamilySequence))
	// Families not in the file keep their defaults.
	assert.Equal(t, defaultPhrasings[tools.FamilyAsset], p.Get(tools.FamilyAsset))
}

func TestPhrasingMissingFileUsesDefaults(t *testing.T) {
	p := NewPhrasings(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, defaultPhrasings[tools.FamilySequence], p.Get(tools.FamilySequence))
}

func TestPhrasingHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrasings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("edit: First version.\n"), 0644))

	p := NewPhrasings(path)
	require.Equal(t, "First version.", p.Get(tools.FamilyEdit))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("edit: Second version.\n"), 0644))
	require.Eventually(t, func() bool {
		return p.Get(tools.FamilyEdit) == "Second version."
	}, 3*time.Second, 20*time.Millisecond)
}
