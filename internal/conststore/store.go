package conststore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

// Constant is one system constant record (§6): a code, its current value,
// a declared value type, and an optional default used when the engine
// falls back (§4.7 step 3).
type Constant struct {
	Code         string      `json:"code"`
	CurrentValue interface{} `json:"currentValue"`
	ValueType    string      `json:"valueType"`
	DefaultValue interface{} `json:"defaultValue,omitempty"`
}

// RuleDef is a named, persisted rule source (§6's
// get_rule_definition_by_code), stored separately from its compiled AST —
// the engine's own "ast:" cache owns the compiled form.
type RuleDef struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// DiskStore persists constants and rule definitions to disk for recovery
// after restart. Adapted from the teacher's DiskRuleStore
// (internal/storage/rule_store_disk.go): same FileSystem injection seam,
// same marshal-to-temp-then-atomic-rename persistence, split across two
// JSON files instead of one since constants and rule definitions have
// independent lifecycles.
type DiskStore struct {
	mu             sync.RWMutex
	constants      map[string]Constant
	ruleDefs       map[string]RuleDef
	dataDir        string
	constantsPath  string
	ruleDefsPath   string
	fs             FileSystem
}

// NewDiskStore builds a DiskStore backed by the real filesystem.
func NewDiskStore(dataDir string) (*DiskStore, error) {
	return NewDiskStoreWithFS(dataDir, &RealFileSystem{})
}

// NewDiskStoreWithFS builds a DiskStore with an injectable filesystem, for
// testing.
func NewDiskStoreWithFS(dataDir string, fs FileSystem) (*DiskStore, error) {
	if err := fs.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &DiskStore{
		constants:     make(map[string]Constant),
		ruleDefs:      make(map[string]RuleDef),
		dataDir:       dataDir,
		constantsPath: filepath.Join(dataDir, "constants.json"),
		ruleDefsPath:  filepath.Join(dataDir, "rule_defs.json"),
		fs:            fs,
	}

	if err := s.loadConstants(); err != nil {
		return nil, fmt.Errorf("failed to load constants: %w", err)
	}
	if err := s.loadRuleDefs(); err != nil {
		return nil, fmt.Errorf("failed to load rule definitions: %w", err)
	}
	return s, nil
}

// PutConstant creates or replaces a constant and persists the change.
func (s *DiskStore) PutConstant(c Constant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constants[c.Code] = c
	return s.persistConstants()
}

// GetConstant returns one constant by code.
func (s *DiskStore) GetConstant(code string) (Constant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.constants[code]
	return c, ok
}

// GetConstantsByCodes implements rules.ConstantStore (§6): returns every
// resolvable code's current value, silently omitting codes with no record
// so the engine's caller can apply declared defaults (§4.7 step 3).
func (s *DiskStore) GetConstantsByCodes(ctx context.Context, codes []string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(codes))
	for _, code := range codes {
		if c, ok := s.constants[code]; ok {
			out[code] = c.CurrentValue
		}
	}
	return out, nil
}

// PutRuleDefinition creates or replaces a named rule source and persists
// the change.
func (s *DiskStore) PutRuleDefinition(def RuleDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleDefs[def.Code] = def
	return s.persistRuleDefs()
}

// GetRuleDefinitionByCode implements the §6 store interface's rule lookup.
func (s *DiskStore) GetRuleDefinitionByCode(code string) (RuleDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.ruleDefs[code]
	return def, ok
}

func (s *DiskStore) persistConstants() error {
	return persistJSON(s.fs, s.constantsPath, s.constants)
}

func (s *DiskStore) persistRuleDefs() error {
	return persistJSON(s.fs, s.ruleDefsPath, s.ruleDefs)
}

func persistJSON(fs FileSystem, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	tmpPath := path + ".tmp"
	if err := fs.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}

func (s *DiskStore) loadConstants() error {
	data, err := s.fs.ReadFile(s.constantsPath)
	if err != nil {
		return nil // fresh start, no file yet
	}
	m := make(map[string]Constant)
	// UseNumber keeps CurrentValue/DefaultValue as json.Number instead of
	// lossy float64, preserving decimal fidelity (§8) through the store.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("failed to unmarshal constants: %w", err)
	}
	s.constants = m
	return nil
}

func (s *DiskStore) loadRuleDefs() error {
	data, err := s.fs.ReadFile(s.ruleDefsPath)
	if err != nil {
		return nil
	}
	m := make(map[string]RuleDef)
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to unmarshal rule definitions: %w", err)
	}
	s.ruleDefs = m
	return nil
}

// CountConstants returns the number of stored constants.
func (s *DiskStore) CountConstants() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.constants)
}

var _ rules.ConstantStore = (*DiskStore)(nil)
