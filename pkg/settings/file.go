package settings

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	lerrors "github.com/matzehuels/lineage/pkg/errors"
)

const fileExt = ".toml"

// FileStore keeps each user's settings in <dir>/<user>.toml.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(user string) string {
	return filepath.Join(s.dir, user+fileExt)
}

// Get reads the user's file.
func (s *FileStore) Get(_ context.Context, user string) (Settings, error) {
	if err := lerrors.ValidateUserID(user); err != nil {
		return Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(s.path(user), user)
}

func (s *FileStore) read(path, user string) (Settings, error) {
	var out Settings
	if _, err := toml.DecodeFile(path, &out); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, notFound(user)
		}
		return Settings{}, lerrors.Wrap(lerrors.ErrCodeInvalidFormat, err, "read settings for %q", user)
	}
	out.User = user
	return out, nil
}

// Save writes the user's file, replacing any previous one.
func (s *FileStore) Save(_ context.Context, in Settings) (Settings, error) {
	out, err := prepare(in, s.now())
	if err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(out.User)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return Settings{}, err
	}
	if err := toml.NewEncoder(f).Encode(out); err != nil {
		f.Close()
		os.Remove(tmp)
		return Settings{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return Settings{}, err
	}
	return out, os.Rename(tmp, path)
}

// Delete removes the user's file.
func (s *FileStore) Delete(_ context.Context, user string) (bool, error) {
	if err := lerrors.ValidateUserID(user); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(user))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// List reads every settings file in the directory.
func (s *FileStore) List(_ context.Context) ([]Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []Settings
	for _, e := range entries {
		user, ok := strings.CutSuffix(e.Name(), fileExt)
		if e.IsDir() || !ok || lerrors.ValidateUserID(user) != nil {
			continue
		}
		st, err := s.read(filepath.Join(s.dir, e.Name()), user)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close(context.Context) error { return nil }

var _ Store = (*FileStore)(nil)
