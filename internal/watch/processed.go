package watch

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// ProcessedSet remembers handled file names across runs, one name per line in a file.
type ProcessedSet struct {
	path  string
	mu    sync.Mutex
	names map[string]struct{}
}

// LoadProcessed reads the set stored at path. A missing file is an empty set. An empty
// path keeps the set in memory only.
func LoadProcessed(path string) (*ProcessedSet, error) {
	s := &ProcessedSet{path: path, names: make(map[string]struct{})}
	if path == "" {
		return s, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open processed list: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			s.names[name] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read processed list: %w", err)
	}
	return s, nil
}

// Has reports whether name was handled.
func (s *ProcessedSet) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Mark records name and appends it to the backing file.
func (s *ProcessedSet) Mark(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return nil
	}
	s.names[name] = struct{}{}
	if s.path == "" {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open processed list: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, name); err != nil {
		return fmt.Errorf("failed to record %s: %w", name, err)
	}
	return nil
}

// Len returns the number of handled names.
func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}
