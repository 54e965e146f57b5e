package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	require.Equal(t, 11, table.Len())

	first, ok := table.Entry(0)
	require.True(t, ok)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "Main achhee hoon", first.Romanized)
	assert.Equal(t, "I am good (Female)", first.Translation)

	last, ok := table.Entry(10)
	require.True(t, ok)
	assert.Equal(t, 10, last.Index)
	assert.Equal(t, "Victory of Krishna", last.Translation)

	_, ok = table.Entry(11)
	assert.False(t, ok)
	_, ok = table.Entry(-1)
	assert.False(t, ok)
}

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestParse_TrimsAndIndexes(t *testing.T) {
	table, err := Parse([]byte(`
words:
  - native: " uno "
    romanized: "uno"
    translation: "one"
  - native: "dos"
    romanized: "dos"
    translation: "two"
`))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	entries := table.Entries()
	assert.Equal(t, "uno", entries[0].Native)
	assert.Equal(t, 1, entries[1].Index)

	entries[0].Native = "mutated"
	again, _ := table.Entry(0)
	assert.Equal(t, "uno", again.Native)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`words: []`))
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = Parse([]byte(`
words:
  - native: "a"
    romanized: ""
    translation: "b"
`))
	assert.ErrorIs(t, err, ErrIncompleteEntry)

	_, err = Parse([]byte(`words: [`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
words:
  - native: "x"
    romanized: "y"
    translation: "z"
`), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
