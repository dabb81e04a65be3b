// Package tags manages the machine's default filter tags, used by apply when
// no tags are given on the command line.
package tags

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// MachineConfig is the schema of machine.yaml.
type MachineConfig struct {
	Tags []string `yaml:"tags"`
}

// Store reads and writes a MachineConfig at Path.
type Store struct {
	Path string
}

// DefaultStore returns the store under the XDG config directory
// (e.g. ~/.config/rigup/machine.yaml).
func DefaultStore() Store {
	return Store{Path: filepath.Join(xdg.ConfigHome, "rigup", "machine.yaml")}
}

// Load reads the machine config, returning an empty config if the file does not exist.
func (s Store) Load() (*MachineConfig, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MachineConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read machine config: %w", err)
	}
	var cfg MachineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse machine config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg, creating parent directories.
func (s Store) Save(cfg *MachineConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// Add appends tag if not already present.
func (s Store) Add(tag string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if slices.Contains(cfg.Tags, tag) {
		return nil
	}
	cfg.Tags = append(cfg.Tags, tag)
	return s.Save(cfg)
}

// Remove deletes tag. It reports whether the tag was present.
func (s Store) Remove(tag string) (bool, error) {
	cfg, err := s.Load()
	if err != nil {
		return false, err
	}
	i := slices.Index(cfg.Tags, tag)
	if i < 0 {
		return false, nil
	}
	cfg.Tags = slices.Delete(cfg.Tags, i, i+1)
	return true, s.Save(cfg)
}

// Split parses a comma-separated tag list, trimming blanks and duplicates.
func Split(list string) []string {
	var out []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
