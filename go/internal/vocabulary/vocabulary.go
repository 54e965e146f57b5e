package vocabulary

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed words.yaml
var embeddedWords []byte

var (
	// ErrEmptyVocabulary is returned when a vocabulary file holds no entries.
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
	// ErrIncompleteEntry is returned when an entry is missing one of its scripts.
	ErrIncompleteEntry = errors.New("vocabulary entry is missing a script")
)

// Entry is one word of the vocabulary with its equivalent representations.
type Entry struct {
	Index       int    `yaml:"-" json:"index"`
	Native      string `yaml:"native" json:"native"`
	Romanized   string `yaml:"romanized" json:"romanized"`
	Translation string `yaml:"translation" json:"translation"`
}

// Table is the immutable, index-addressed vocabulary shared by every room.
type Table struct {
	entries []Entry
}

type file struct {
	Words []Entry `yaml:"words"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded vocabulary. It is parsed once per process.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(embeddedWords)
	})
	return defaultTable, defaultErr
}

// Load reads a vocabulary YAML file from disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a vocabulary document. Every script is NFC-normalized so that
// visually identical strings compare equal regardless of how they were typed.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if len(f.Words) == 0 {
		return nil, ErrEmptyVocabulary
	}

	entries := make([]Entry, len(f.Words))
	for i, w := range f.Words {
		e := Entry{
			Index:       i,
			Native:      normalize(w.Native),
			Romanized:   normalize(w.Romanized),
			Translation: normalize(w.Translation),
		}
		if e.Native == "" || e.Romanized == "" || e.Translation == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrIncompleteEntry)
		}
		entries[i] = e
	}
	return &Table{entries: entries}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entry returns the entry at index i.
func (t *Table) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of all entries in index order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
