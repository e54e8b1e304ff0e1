package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentaxai/gentax/internal/log"
)

const testSystemPrompt = "You are a precise tax assistant."

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := Open(path, log.NewNop())
	require.NoError(t, err)
	return s
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, 0, s.Len())
}

func TestOpen_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, log.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing session file")
}

func TestGetOrCreate_SeedsSystemTurn(t *testing.T) {
	s := newTestStore(t)

	turns := s.GetOrCreate("sess-1", testSystemPrompt)

	require.Len(t, turns, 1)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Equal(t, testSystemPrompt, turns[0].Content)
}

func TestGetOrCreate_ExistingSessionUnchanged(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("sess-1", testSystemPrompt)
	require.NoError(t, s.Append("sess-1", RoleUser, "What is GST?"))

	turns := s.GetOrCreate("sess-1", "a different prompt")

	require.Len(t, turns, 2)
	assert.Equal(t, testSystemPrompt, turns[0].Content)
	assert.Equal(t, RoleUser, turns[1].Role)
}

func TestGetOrCreate_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)

	turns := s.GetOrCreate("sess-1", testSystemPrompt)
	turns[0].Content = "mutated"

	stored, ok := s.Turns("sess-1")
	require.True(t, ok)
	assert.Equal(t, testSystemPrompt, stored[0].Content)
}

func TestAppend_UnknownSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Append("missing", RoleUser, "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppend_GrowsTranscript(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("sess-1", testSystemPrompt)

	require.NoError(t, s.Append("sess-1", RoleUser, "question"))
	require.NoError(t, s.Append("sess-1", RoleAssistant, "answer"))

	turns, ok := s.Turns("sess-1")
	require.True(t, ok)
	require.Len(t, turns, 3)
	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, RoleAssistant, turns[2].Role)
}

func TestPersist_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := Open(path, log.NewNop())
	require.NoError(t, err)

	s.GetOrCreate("sess-1", testSystemPrompt)
	require.NoError(t, s.Append("sess-1", RoleUser, "What is the GST rate?"))
	require.NoError(t, s.Append("sess-1", RoleAssistant, "It depends on the category."))
	s.GetOrCreate("sess-2", testSystemPrompt)
	require.NoError(t, s.Persist())

	reloaded, err := Open(path, log.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, reloaded.Len())
	got, ok := reloaded.Turns("sess-1")
	require.True(t, ok)
	want, ok := s.Turns("sess-1")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestPersist_HumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := Open(path, log.NewNop())
	require.NoError(t, err)

	s.GetOrCreate("sess-1", testSystemPrompt)
	require.NoError(t, s.Persist())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ") // indented output
}

func TestPersist_OverwritesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := Open(path, log.NewNop())
	require.NoError(t, err)

	s.GetOrCreate("old", testSystemPrompt)
	require.NoError(t, s.Persist())

	// A fresh store that never saw "old" rewrites the file wholesale.
	fresh, err := Open(filepath.Join(t.TempDir(), "other.json"), log.NewNop())
	require.NoError(t, err)
	fresh.path = path
	fresh.GetOrCreate("new", testSystemPrompt)
	require.NoError(t, fresh.Persist())

	reloaded, err := Open(path, log.NewNop())
	require.NoError(t, err)
	_, hasOld := reloaded.Turns("old")
	_, hasNew := reloaded.Turns("new")
	assert.False(t, hasOld)
	assert.True(t, hasNew)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("sess-1", testSystemPrompt)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append("sess-1", RoleUser, "q")
		}()
	}
	wg.Wait()

	turns, ok := s.Turns("sess-1")
	require.True(t, ok)
	assert.Len(t, turns, 51)
}

func TestSessionIDs_Sorted(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("b", testSystemPrompt)
	s.GetOrCreate("a", testSystemPrompt)
	s.GetOrCreate("c", testSystemPrompt)

	assert.Equal(t, []string{"a", "b", "c"}, s.SessionIDs())
}
