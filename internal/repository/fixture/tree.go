// Package fixture provides an in-memory content repository loaded from a
// YAML description of the folder hierarchy. It backs local development and
// is the input format of the seed command.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tree is the YAML document root.
type Tree struct {
	Folders []Folder `yaml:"folders"`
}

// Folder is one folder with its nested content.
type Folder struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	PersonalFor string   `yaml:"personal_for,omitempty"` // user whose personal folder this is
	Folders     []Folder `yaml:"folders,omitempty"`
	Documents   []Item   `yaml:"documents,omitempty"`
	Views       []Item   `yaml:"views,omitempty"`
}

// Item is a document or view.
type Item struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*Tree, error) {
	var tree Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := tree.validate(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// ParseFile reads and parses a fixture file.
func ParseFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Walk visits every folder depth-first in document order. parentID is empty
// for root folders.
func (t *Tree) Walk(fn func(f *Folder, parentID string) error) error {
	var walk func(folders []Folder, parentID string) error
	walk = func(folders []Folder, parentID string) error {
		for i := range folders {
			f := &folders[i]
			if err := fn(f, parentID); err != nil {
				return err
			}
			if err := walk(f.Folders, f.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.Folders, "")
}

func (t *Tree) validate() error {
	folders := make(map[string]bool)
	documents := make(map[string]bool)
	views := make(map[string]bool)
	personal := make(map[string]bool)

	return t.Walk(func(f *Folder, _ string) error {
		if f.ID == "" {
			return fmt.Errorf("fixture folder %q has no id", f.Name)
		}
		if folders[f.ID] {
			return fmt.Errorf("duplicate folder id %q", f.ID)
		}
		folders[f.ID] = true

		if f.PersonalFor != "" {
			if personal[f.PersonalFor] {
				return fmt.Errorf("user %q has more than one personal folder", f.PersonalFor)
			}
			personal[f.PersonalFor] = true
		}

		for _, d := range f.Documents {
			if d.ID == "" || documents[d.ID] {
				return fmt.Errorf("missing or duplicate document id %q in folder %s", d.ID, f.ID)
			}
			documents[d.ID] = true
		}
		for _, v := range f.Views {
			if v.ID == "" || views[v.ID] {
				return fmt.Errorf("missing or duplicate view id %q in folder %s", v.ID, f.ID)
			}
			views[v.ID] = true
		}
		return nil
	})
}
