package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StateFile is the small process-state file the agent's outer loop
// consults between sessions. Today it carries one flag: whether any
// trade committed during the current session.
type StateFile struct {
	mu   sync.Mutex
	path string
}

type stateDoc struct {
	IfTrade bool `json:"if_trade"`
}

func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

func (s *StateFile) read() (stateDoc, error) {
	var doc stateDoc
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse state file: %w", err)
	}
	return doc, nil
}

func (s *StateFile) write(doc stateDoc) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("state file dir: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// MarkTraded records that a trade committed this session.
func (s *StateFile) MarkTraded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.IfTrade = true
	return s.write(doc)
}

// Traded reports whether any trade committed since the last clear.
func (s *StateFile) Traded() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	return doc.IfTrade, err
}

// ClearTraded resets the flag, typically at session start.
func (s *StateFile) ClearTraded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.IfTrade = false
	return s.write(doc)
}
