package bubbletea_test

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/bubbletea"
	"github.com/fwojciec/gias/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleListings() []gias.PatchListing {
	return []gias.PatchListing{
		{
			Name:    "issue_42_requests_fix.patch",
			Size:    2048,
			Created: created,
			Metadata: &gias.PatchMetadata{
				Repository: "psf/requests",
				IssueID:    42,
				IssueTitle: "Timeout ignored",
				Analysis:   "The timeout is dropped in api.py.",
			},
		},
		{
			Name:    "requests_fix_20250301_120000.patch",
			Size:    512,
			Created: created.Add(-24 * time.Hour),
		},
	}
}

func newStore(listings []gias.PatchListing, listErr error) *mock.PatchStore {
	return &mock.PatchStore{
		ListFn: func() ([]gias.PatchListing, error) { return listings, listErr },
		ReadFn: func(name string) (string, error) {
			for _, l := range listings {
				if l.Name == name {
					return "patch text of " + name, nil
				}
			}
			return "", gias.ErrPatchNotFound
		},
	}
}

func fixedParser(diff *gias.Diff) *mock.DiffParser {
	return &mock.DiffParser{ParseFn: func(string) (*gias.Diff, error) { return diff, nil }}
}

type recordingClipboard struct {
	mu       sync.Mutex
	contents []string
}

func (c *recordingClipboard) Copy(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = append(c.contents, content)
	return nil
}

func (c *recordingClipboard) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.contents) == 0 {
		return ""
	}
	return c.contents[len(c.contents)-1]
}

// drive feeds msg to the model and runs the returned command synchronously,
// feeding its message back until no command remains.
func drive(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	for msg != nil {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd == nil {
			break
		}
		msg = cmd()
		if _, quit := msg.(tea.QuitMsg); quit {
			break
		}
	}
	return m
}

func startedModel(t *testing.T, store gias.PatchStore, parser gias.DiffParser, opts ...bubbletea.HistoryOption) tea.Model {
	t.Helper()
	opts = append([]bubbletea.HistoryOption{bubbletea.WithRenderer(plainRenderer())}, opts...)
	var m tea.Model = bubbletea.NewHistoryModel(store, parser, opts...)
	m = drive(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	return drive(t, m, m.Init()())
}

func TestHistoryModel_List(t *testing.T) {
	t.Parallel()

	t.Run("shows loading before the first listing", func(t *testing.T) {
		t.Parallel()

		m := bubbletea.NewHistoryModel(newStore(nil, nil), fixedParser(nil))

		assert.Contains(t, m.View(), "Loading")
	})

	t.Run("lists patches with issue details", func(t *testing.T) {
		t.Parallel()

		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(nil))
		view := m.View()

		assert.Contains(t, view, "Patches (2)")
		assert.Contains(t, view, "> issue_42_requests_fix.patch")
		assert.Contains(t, view, "2.0 KiB")
		assert.Contains(t, view, "2025-03-14 09:26:53")
		assert.Contains(t, view, "#42 Timeout ignored")
		assert.Contains(t, view, "  requests_fix_20250301_120000.patch")
	})

	t.Run("moves the cursor and clamps at the ends", func(t *testing.T) {
		t.Parallel()

		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(nil))

		m = drive(t, m, runeKey('j'))
		m = drive(t, m, runeKey('j'))
		assert.Contains(t, m.View(), "> requests_fix_20250301_120000.patch")

		m = drive(t, m, runeKey('k'))
		m = drive(t, m, runeKey('k'))
		assert.Contains(t, m.View(), "> issue_42_requests_fix.patch")
	})

	t.Run("shows hint when there are no patches", func(t *testing.T) {
		t.Parallel()

		m := startedModel(t, newStore(nil, nil), fixedParser(nil))

		assert.Contains(t, m.View(), "No patches yet")
	})

	t.Run("shows listing errors", func(t *testing.T) {
		t.Parallel()

		m := startedModel(t, newStore(nil, errors.New("permission denied")), fixedParser(nil))

		assert.Contains(t, m.View(), "error: permission denied")
	})
}

func TestHistoryModel_Diff(t *testing.T) {
	t.Parallel()

	t.Run("opens the selected patch", func(t *testing.T) {
		t.Parallel()

		var parsed string
		parser := &mock.DiffParser{ParseFn: func(text string) (*gias.Diff, error) {
			parsed = text
			return sampleDiff(), nil
		}}
		m := startedModel(t, newStore(sampleListings(), nil), parser)

		m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		view := m.View()

		assert.Equal(t, "patch text of issue_42_requests_fix.patch", parsed)
		assert.Contains(t, view, "issue_42_requests_fix.patch  3 files  +1 -1  psf/requests#42 Timeout ignored")
		assert.Contains(t, view, "return session.request(timeout=timeout)")
	})

	t.Run("returns to the list", func(t *testing.T) {
		t.Parallel()

		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(sampleDiff()))

		m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})

		assert.Contains(t, m.View(), "Patches (2)")
	})

	t.Run("reports parse failures and stays on the list", func(t *testing.T) {
		t.Parallel()

		parser := &mock.DiffParser{ParseFn: func(string) (*gias.Diff, error) {
			return nil, errors.New("bad hunk")
		}}
		m := startedModel(t, newStore(sampleListings(), nil), parser)

		m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		view := m.View()

		assert.Contains(t, view, "error: parse issue_42_requests_fix.patch: bad hunk")
		assert.Contains(t, view, "Patches (2)")
	})

	t.Run("jumps between files", func(t *testing.T) {
		t.Parallel()

		lines := make([]gias.Line, 40)
		for i := range lines {
			lines[i] = gias.Line{Type: gias.LineContext, Content: "filler", OldLineNum: i + 1, NewLineNum: i + 1}
		}
		diff := &gias.Diff{Files: []gias.FileDiff{
			{NewPath: "first.py", Hunks: []gias.Hunk{{OldStart: 1, OldCount: 40, NewStart: 1, NewCount: 40, Lines: lines}}},
			{NewPath: "second.py", Hunks: []gias.Hunk{{OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 1, Lines: lines[:1]}}},
		}}
		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(diff))

		m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		require.NotContains(t, m.View(), "second.py")

		m = drive(t, m, runeKey(']'))
		assert.Contains(t, m.View(), "── second.py")

		m = drive(t, m, runeKey('['))
		assert.Contains(t, m.View(), "── first.py")
	})
}

func TestHistoryModel_Copy(t *testing.T) {
	t.Parallel()

	t.Run("copies the opened patch", func(t *testing.T) {
		t.Parallel()

		clip := &recordingClipboard{}
		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(sampleDiff()), bubbletea.WithClipboard(clip))

		m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m = drive(t, m, runeKey('y'))

		assert.Equal(t, "patch text of issue_42_requests_fix.patch", clip.last())
		assert.Contains(t, m.View(), "copied issue_42_requests_fix.patch")
	})

	t.Run("copies the commit message from metadata", func(t *testing.T) {
		t.Parallel()

		clip := &recordingClipboard{}
		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(nil), bubbletea.WithClipboard(clip))

		m = drive(t, m, runeKey('c'))

		assert.True(t, strings.HasPrefix(clip.last(), "Fix #42: Timeout ignored\n\nThe timeout is dropped in api.py.\n"))
		assert.Contains(t, m.View(), "copied commit message")
	})

	t.Run("reports missing metadata", func(t *testing.T) {
		t.Parallel()

		clip := &recordingClipboard{}
		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(nil), bubbletea.WithClipboard(clip))

		m = drive(t, m, runeKey('j'))
		m = drive(t, m, runeKey('c'))

		assert.Empty(t, clip.last())
		assert.Contains(t, m.View(), "copy failed: patch has no metadata")
	})

	t.Run("reports clipboard errors", func(t *testing.T) {
		t.Parallel()

		clip := &mock.Clipboard{CopyFn: func(string) error { return errors.New("xclip: exit status 1") }}
		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(nil), bubbletea.WithClipboard(clip))

		m = drive(t, m, runeKey('y'))

		assert.Contains(t, m.View(), "copy failed: xclip: exit status 1")
	})

	t.Run("reports missing clipboard", func(t *testing.T) {
		t.Parallel()

		m := startedModel(t, newStore(sampleListings(), nil), fixedParser(nil))

		m = drive(t, m, runeKey('y'))

		assert.Contains(t, m.View(), "copy failed: clipboard unavailable")
	})
}

func TestHistoryModel_Program(t *testing.T) {
	t.Parallel()

	m := bubbletea.NewHistoryModel(newStore(sampleListings(), nil), fixedParser(sampleDiff()),
		bubbletea.WithRenderer(trueColorRenderer()))
	tm := teatest.NewTestModel(t, m,
		teatest.WithInitialTermSize(100, 24),
	)

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("issue_42_requests_fix.patch"))
	})

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("session.request(timeout=timeout)"))
	})

	tm.Send(runeKey('q'))
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
}
