package content_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configllm/internal/content"
)

func TestHashFile_PureFunctionOfBytes(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("same bytes"))
	b := writeFile(t, dir, "renamed.md", []byte("same bytes"))

	ha, err := content.HashFile(a)
	require.NoError(t, err)
	hb, err := content.HashFile(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.Equal(t, content.HashBytes([]byte("same bytes")), ha)
	assert.Len(t, ha, 32)
}

func TestHashFile_ChangesWithOneByte(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("same bytes"))
	b := writeFile(t, dir, "b.txt", []byte("same bytez"))

	ha, err := content.HashFile(a)
	require.NoError(t, err)
	hb, err := content.HashFile(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestHashFile_KnownDigest(t *testing.T) {
	sum, err := content.HashFile(writeFile(t, t.TempDir(), "empty.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", sum)
}

func TestHashFile_MissingFile(t *testing.T) {
	_, err := content.HashFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
