package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileChecksum(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "1T2024.csv", "DATA;REG_ANS\n2024-01-01;123456\n")
	b := writeFile(t, dir, "1T2024_copy.csv", "DATA;REG_ANS\n2024-01-01;123456\n")
	c := writeFile(t, dir, "2T2024.csv", "DATA;REG_ANS\n2024-04-01;123456\n")

	sumA, err := FileChecksum(a)
	require.NoError(t, err)
	sumB, err := FileChecksum(b)
	require.NoError(t, err)
	sumC, err := FileChecksum(c)
	require.NoError(t, err)

	assert.Len(t, sumA, 16)
	assert.Equal(t, sumA, sumB)
	assert.NotEqual(t, sumA, sumC)

	_, err = FileChecksum(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestTracker_Seen(t *testing.T) {
	tracker := NewTracker()

	_, dup := tracker.Seen("abc", "a.csv")
	assert.False(t, dup)

	first, dup := tracker.Seen("abc", "b.csv")
	assert.True(t, dup)
	assert.Equal(t, "a.csv", first)

	_, dup = tracker.Seen("def", "c.csv")
	assert.False(t, dup)
}
