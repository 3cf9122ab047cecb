package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store persists workflows as JSON files in a directory. The file contents
// are the boundary contract for recordings: per event a type tag, relative
// timestamp, and variant fields; per workflow id, name, and creation time.
type Store struct {
	dir string
}

// DefaultDir is the store location under the user home directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "bigbrother")
	}
	return filepath.Join(home, ".bigbrother", "workflows")
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create workflow dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func slug(name string) string {
	safe := strings.ReplaceAll(name, "/", "_")
	safe = strings.ReplaceAll(safe, " ", "_")
	return safe
}

// Path returns the file path a workflow with this name saves to.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, slug(name)+".json")
}

// Save writes the workflow, overwriting any previous recording of the same
// name. Returns the file path.
func (s *Store) Save(w *Workflow) (string, error) {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal workflow: %w", err)
	}
	path := s.Path(w.Name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write workflow: %w", err)
	}
	return path, nil
}

// Load reads a workflow by name from the store.
func (s *Store) Load(name string) (*Workflow, error) {
	return LoadFile(s.Path(name))
}

// LoadFile reads a workflow from an explicit path.
func LoadFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal workflow %s: %w", path, err)
	}
	return &w, nil
}

// Info summarizes one stored workflow for listings.
type Info struct {
	Name      string    `json:"name"       yaml:"name"`
	Path      string    `json:"path"       yaml:"path"`
	Events    int       `json:"events"     yaml:"events"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// List enumerates stored workflows, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		w, err := LoadFile(path)
		if err != nil {
			// Skip unreadable files rather than failing the listing.
			continue
		}
		infos = append(infos, Info{
			Name:      w.Name,
			Path:      path,
			Events:    len(w.Events),
			CreatedAt: w.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}
