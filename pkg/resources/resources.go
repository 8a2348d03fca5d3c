// Package resources keeps generated files (charts) on disk so they are built
// once per content and served to both the bot and the web.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type builder func(filePath string) error

type Resource struct {
	id     string
	dir    string
	prefix string
	suffix string
}

func (r Resource) IsZero() bool {
	return r.id == ""
}

func (r Resource) String() string {
	return fmt.Sprintf("ID: %s, File: %s", r.id, r.FileName())
}

func (r Resource) FileName() string {
	return fmt.Sprintf("%s%s%s", r.prefix, r.id, r.suffix)
}

func (r Resource) FilePath() string {
	return filepath.Join(r.dir, r.FileName())
}

// URLPath is where the web server exposes the file.
func (r Resource) URLPath() string {
	return "/resources/" + r.FileName()
}

type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates dir if missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Build returns the resource for id, calling build only when the file does
// not exist yet.
func (s *Store) Build(prefix, id, suffix string, build builder) (Resource, error) {
	r := Resource{dir: s.dir, prefix: prefix, suffix: suffix}
	if id == "" {
		return r, errors.New("id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := filepath.Join(s.dir, prefix+id+suffix)
	if _, err := os.Stat(filePath); err == nil {
		log.Debug().Str("file", filePath).Msg("Resource already exists")
	} else if os.IsNotExist(err) {
		if err := build(filePath); err != nil {
			os.Remove(filePath)
			return r, errors.Wrapf(err, "building %s", filePath)
		}
	} else {
		return r, err
	}

	r.id = id
	return r, nil
}

// Reset removes every generated file. Race data is refetched on each cache
// reset, so charts built from it go too.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrapf(err, "reading %s", s.dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return errors.Wrapf(err, "removing %s", e.Name())
		}
	}
	return nil
}
