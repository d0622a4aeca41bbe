package gias_test

import (
	"testing"

	"github.com/fwojciec/gias"
	"github.com/stretchr/testify/assert"
)

func TestChangeSet(t *testing.T) {
	t.Parallel()

	t.Run("zero value is empty", func(t *testing.T) {
		t.Parallel()

		var cs gias.ChangeSet

		assert.Equal(t, 0, cs.Len())
		assert.Empty(t, cs.Paths())
		_, ok := cs.Get("a.py")
		assert.False(t, ok)
	})

	t.Run("nil set is empty", func(t *testing.T) {
		t.Parallel()

		var cs *gias.ChangeSet

		assert.Equal(t, 0, cs.Len())
		assert.Nil(t, cs.Changes())
	})

	t.Run("replacing a path keeps its position", func(t *testing.T) {
		t.Parallel()

		cs := gias.NewChangeSet(
			gias.FileChange{Path: "a", Original: "1", Modified: "2"},
			gias.FileChange{Path: "b", Original: "1", Modified: "2"},
		)
		cs.Set("a", "3", "4")

		assert.Equal(t, []string{"a", "b"}, cs.Paths())
		c, _ := cs.Get("a")
		assert.Equal(t, gias.FileChange{Path: "a", Original: "3", Modified: "4"}, c)
	})

	t.Run("effective skips no-op entries", func(t *testing.T) {
		t.Parallel()

		cs := gias.NewChangeSet(
			gias.FileChange{Path: "same", Original: "x", Modified: "x"},
			gias.FileChange{Path: "changed", Original: "x", Modified: "y"},
		)

		assert.Equal(t, 2, cs.Len())
		assert.Equal(t, []string{"changed"}, cs.Effective())
	})

	t.Run("changes returns a copy", func(t *testing.T) {
		t.Parallel()

		cs := gias.NewChangeSet(gias.FileChange{Path: "a", Modified: "x"})
		changes := cs.Changes()
		changes[0].Modified = "mutated"

		c, _ := cs.Get("a")
		assert.Equal(t, "x", c.Modified)
	})
}
