package gitdiff_test

import (
	"testing"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/gitdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storedPatch = `From: GIAS Patch Agent <gias@github.local>
Date: 2024-05-06T07:08:09Z
Subject: Fix for psf/requests
X-GIAS-Repository: psf/requests

Fix for Timeouts ignored

Issue: #42
Timeouts are ignored.

---

--- a/requests/api.py
+++ b/requests/api.py
@@ -1,3 +1,3 @@
 def get(url):
-    return request(url)
+    return request(url, timeout=10)
 # end

--- a/requests/new.py
+++ b/requests/new.py
@@ -0,0 +1,2 @@
+a = 1
+b = 2
`

func TestParser_Parse_EmptyInput(t *testing.T) {
	t.Parallel()

	diff, err := gitdiff.NewParser().Parse("")

	require.NoError(t, err)
	assert.Empty(t, diff.Files)
}

func TestParser_Parse_StoredPatch(t *testing.T) {
	t.Parallel()

	diff, err := gitdiff.NewParser().Parse(storedPatch)

	require.NoError(t, err)
	require.Len(t, diff.Files, 2)

	first := diff.Files[0]
	assert.Equal(t, "requests/api.py", first.Path())
	require.Len(t, first.Hunks, 1)
	h := first.Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 3, h.OldCount)
	require.Len(t, h.Lines, 4)
	assert.Equal(t, gias.LineContext, h.Lines[0].Type)
	assert.Equal(t, 1, h.Lines[0].OldLineNum)
	assert.Equal(t, 1, h.Lines[0].NewLineNum)
	assert.Equal(t, gias.LineDeleted, h.Lines[1].Type)
	assert.Equal(t, 2, h.Lines[1].OldLineNum)
	assert.Equal(t, 0, h.Lines[1].NewLineNum)
	assert.Equal(t, gias.LineAdded, h.Lines[2].Type)
	assert.Equal(t, "    return request(url, timeout=10)\n", h.Lines[2].Content)
	assert.Equal(t, 0, h.Lines[2].OldLineNum)
	assert.Equal(t, 2, h.Lines[2].NewLineNum)

	assert.Equal(t, "requests/new.py", diff.Files[1].Path())
	assert.Equal(t, []gias.FileStat{
		{Path: "requests/api.py", Added: 1, Deleted: 1},
		{Path: "requests/new.py", Added: 2, Deleted: 0},
	}, diff.FileStats())
}

func TestParser_Parse_GitFormat(t *testing.T) {
	t.Parallel()

	input := `diff --git a/main.go b/main.go
deleted file mode 100644
index 1234567..0000000
--- a/main.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package main
-func main() {}
`

	diff, err := gitdiff.NewParser().Parse(input)

	require.NoError(t, err)
	require.Len(t, diff.Files, 1)
	f := diff.Files[0]
	assert.Equal(t, gias.FileDeleted, f.Operation)
	assert.Equal(t, "main.go", f.Path())
	added, deleted := f.Stats()
	assert.Equal(t, 0, added)
	assert.Equal(t, 2, deleted)
}

func TestParser_Parse_NoNewlineAtEOF(t *testing.T) {
	t.Parallel()

	input := `--- a/x.txt
+++ b/x.txt
@@ -1 +1 @@
-old
\ No newline at end of file
+new
\ No newline at end of file
`

	diff, err := gitdiff.NewParser().Parse(input)

	require.NoError(t, err)
	require.Len(t, diff.Files, 1)
	lines := diff.Files[0].Hunks[0].Lines
	require.Len(t, lines, 2)
	assert.True(t, lines[0].NoNewline)
	assert.True(t, lines[1].NoNewline)
}

func TestParser_Parse_MalformedInput(t *testing.T) {
	t.Parallel()

	input := `--- a/x.txt
+++ b/x.txt
@@ -1,5 +1,5 @@
-only one line
`

	_, err := gitdiff.NewParser().Parse(input)

	assert.Error(t, err)
}
