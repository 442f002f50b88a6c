package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/moa/core"
)

// DataFileName is the per-user document written by FileStore.
const DataFileName = "session_data.json"

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// DirPerm is used when creating user folders. Default 0o755.
	DirPerm os.FileMode
	// FilePerm is used for session documents. Default 0o600.
	FilePerm os.FileMode
}

// FileStore persists sessions as JSON documents, one folder per user.
// Writes go to a temporary file that is renamed into place, so readers
// never observe a partially written document.
type FileStore struct {
	dir  string
	opts FileStoreOptions
	mu   sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Save.
func NewFileStore(dir string, optFns ...func(o *FileStoreOptions)) *FileStore {
	opts := FileStoreOptions{DirPerm: 0o755, FilePerm: 0o600}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileStore{dir: dir, opts: opts}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the location of the document for id.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.dir, id, DataFileName)
}

// Load reads the session for id. A missing document yields a fresh default
// session; missing fields fall back to their defaults.
func (s *FileStore) Load(id string) (*core.Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return core.NewSession(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	sess := core.NewSession(id)
	sess.Messages = nil
	sess.SelectedModels = nil
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	sess.ID = id
	if len(sess.Messages) == 0 {
		sess.Messages = core.NewConversation(core.DefaultSystemPrompt)
	}
	if sess.SelectedModels == nil {
		sess.SelectedModels = slices.Clone(core.DefaultReferenceModels)
	}
	if sess.Conversations == nil {
		sess.Conversations = []core.ConversationRecord{}
	}
	return sess, nil
}

// Save writes a snapshot of sess.
func (s *FileStore) Save(sess *core.Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder := filepath.Join(s.dir, sess.ID)
	if err := os.MkdirAll(folder, s.opts.DirPerm); err != nil {
		return fmt.Errorf("create user folder: %w", err)
	}

	tmp, err := os.CreateTemp(folder, DataFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	if err := tmp.Chmod(s.opts.FilePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session %s: %w", sess.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session %s: %w", sess.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(sess.ID)); err != nil {
		return fmt.Errorf("commit session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes the stored document of id.
func (s *FileStore) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.ErrSessionNotFound
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// List returns the ids that have a stored document, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.Path(e.Name())); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// ErrInvalidID is returned for user ids that can not be used as a folder name.
var ErrInvalidID = errors.New("invalid session id")

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
