package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/moa/core"
)

// Interface compliance (compile-time assertion)
var (
	_ core.SessionStore = (*InMemoryStore)(nil)
	_ core.SessionStore = (*FileStore)(nil)
)

func populated(id string) *core.Session {
	s := core.NewSession(id)
	s.UpdateSystemInstructions("answer in German")
	s.AppendMessage(core.UserMessage("Hallo?"))
	s.AppendMessage(core.AssistantMessage("Hallo!"))
	s.SetSelectedModels([]string{"m1", "m2"})
	return s
}

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()

	fresh, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Len())
	assert.Empty(t, store.List())

	sess := populated("alice")
	require.NoError(t, store.Save(sess))

	// later mutations do not leak into the stored snapshot
	sess.AppendMessage(core.UserMessage("unsaved"))

	loaded, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
	assert.Equal(t, []string{"m1", "m2"}, loaded.Models())
	assert.Equal(t, []string{"alice"}, store.List())

	require.NoError(t, store.Delete("alice"))
	assert.ErrorIs(t, store.Delete("alice"), core.ErrSessionNotFound)
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	sess := populated("bob@example.com")
	require.NoError(t, store.Save(sess))

	_, err := os.Stat(filepath.Join(dir, "bob@example.com", DataFileName))
	require.NoError(t, err)

	loaded, err := store.Load("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, sess.History(), loaded.History())
	assert.Equal(t, "answer in German", loaded.UserSystemPrompt)
	assert.Equal(t, []string{"m1", "m2"}, loaded.Models())
	require.Len(t, loaded.ConversationRecords(), 1)
	assert.Equal(t, "Hallo?", loaded.ConversationRecords()[0].FirstQuestion)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, ids)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Join(dir, "bob@example.com"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_MissingDocument(t *testing.T) {
	store := NewFileStore(t.TempDir())

	sess, err := store.Load("nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", sess.ID)
	assert.Equal(t, core.NewConversation(core.DefaultSystemPrompt), sess.History())
	assert.Equal(t, core.DefaultReferenceModels, sess.Models())

	ids, err := NewFileStore(filepath.Join(t.TempDir(), "missing")).List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_PartialDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "carol"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "carol", DataFileName), []byte(`{"user_system_prompt":"be brief"}`), 0o600))

	sess, err := NewFileStore(dir).Load("carol")
	require.NoError(t, err)
	assert.Equal(t, "be brief", sess.UserSystemPrompt)
	assert.Equal(t, 1, sess.Len())
	assert.Equal(t, core.DefaultReferenceModels, sess.Models())
}

func TestFileStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dave"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dave", DataFileName), []byte(`{`), 0o600))

	_, err := NewFileStore(dir).Load("dave")
	assert.ErrorContains(t, err, "decode session dave")
}

func TestFileStore_InvalidID(t *testing.T) {
	store := NewFileStore(t.TempDir())

	for _, id := range []string{"", ".", "..", "../etc", `a\b`} {
		_, err := store.Load(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, store.Save(core.NewSession(id)), ErrInvalidID, id)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save(core.NewSession("erin")))
	require.NoError(t, store.Delete("erin"))
	assert.ErrorIs(t, store.Delete("erin"), core.ErrSessionNotFound)
}
