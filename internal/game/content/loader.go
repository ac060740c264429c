package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadFile parses one content YAML file. Unknown fields are rejected. A
// file may hold multiple YAML documents; their sections are concatenated.
func LoadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: reading %q: %w", path, err)
	}
	docs, err := decodeDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("content: parsing %q: %w", path, err)
	}
	return docs, nil
}

func decodeDocuments(data []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var docs []Document
	for {
		var doc Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadDirectory parses every *.yaml file in dir, in lexicographic order,
// validates each definition, and returns the merged documents.
func LoadDirectory(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("content: reading dir %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	var all []Document
	for _, path := range files {
		docs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, docs...)
	}

	for _, doc := range all {
		if err := validateDocument(doc); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func validateDocument(doc Document) error {
	for i := range doc.Resources {
		if err := doc.Resources[i].Validate(); err != nil {
			return err
		}
	}
	for i := range doc.Effects {
		if err := doc.Effects[i].Validate(); err != nil {
			return err
		}
	}
	for i := range doc.Actions {
		if err := doc.Actions[i].Validate(); err != nil {
			return err
		}
	}
	for i := range doc.Reactions {
		if err := doc.Reactions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
