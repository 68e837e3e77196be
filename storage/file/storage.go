package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Storage persists a single key space as a JSON object in one file.
// Writes go to a temporary file renamed over the old one, so a reader sees either the
// previous or the new content.
type Storage struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Storage {
	return &Storage{path: path}
}

func (s *Storage) Path() string { return s.path }

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := items[key]
	return value, ok, nil
}

func (s *Storage) Replace(_ context.Context, items map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range items {
		current[k] = v
	}
	return s.write(current)
}

func (s *Storage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err = os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "removing session file")
		}
		return nil
	}
	return s.write(current)
}

// read returns an empty map when the file does not exist. A corrupt file reads as empty too:
// the session layer treats it as a logged out user and rewrites it on the next login.
func (s *Storage) read() (map[string]string, error) {
	items := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, errors.Wrap(err, "reading session file")
	}
	if err = json.Unmarshal(data, &items); err != nil {
		return make(map[string]string), nil
	}
	return items, nil
}

func (s *Storage) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session file")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing session file")
}
