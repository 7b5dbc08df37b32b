package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// maxFileRuns bounds the JSON history; older runs are dropped on write.
const maxFileRuns = 1000

func (s *Store) ensureLoadedFile() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			s.loadErr = err
			return
		}
		var rows []Run
		if err := json.Unmarshal(b, &rows); err != nil {
			s.loadErr = fmt.Errorf("runstore: decode %s: %w", s.path, err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			if row.ID == "" {
				continue
			}
			s.runs = append(s.runs, normalizeRun(row))
		}
	})
	return s.loadErr
}

func (s *Store) putFile(r Run) error {
	if err := s.ensureLoadedFile(); err != nil {
		return err
	}
	s.mu.Lock()
	replaced := false
	for i := range s.runs {
		if s.runs[i].ID == r.ID {
			s.runs[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		s.runs = append(s.runs, r)
	}
	if len(s.runs) > maxFileRuns {
		s.runs = append([]Run(nil), s.runs[len(s.runs)-maxFileRuns:]...)
	}
	b, err := json.MarshalIndent(s.runs, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) recentFile(task string, n int) ([]Run, error) {
	if err := s.ensureLoadedFile(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Run, 0, n)
	for _, r := range s.runs {
		if task != "" && r.Task != task {
			continue
		}
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Started.After(out[j].Started) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
