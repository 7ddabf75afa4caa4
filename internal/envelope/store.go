package envelope

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store keeps persisted envelopes in a single data directory.
type Store struct {
	dir string
}

// Entry describes one persisted envelope.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the envelope for name is stored.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes env as <dir>/<name>.json, creating the directory on first use.
func (s *Store) Save(env *Envelope, name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding envelope: %w", err)
	}
	path := s.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing envelope: %w", err)
	}
	return path, nil
}

// Load reads a persisted envelope.
func Load(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing envelope %s: %w", path, err)
	}
	return &env, nil
}

// List returns the persisted envelopes, newest first. A missing data
// directory holds no envelopes.
func (s *Store) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing data dir: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
		}
		entries = append(entries, Entry{
			Name:    strings.TrimSuffix(f.Name(), ".json"),
			Path:    filepath.Join(s.dir, f.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}
