package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// FileChecksum hashes a file's content with xxhash64.
func FileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", filePath, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Tracker remembers which file first carried each checksum in a run.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]string)}
}

// Seen registers sum for path. When the sum was already registered it returns the
// first path and true.
func (t *Tracker) Seen(sum, path string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if first, ok := t.seen[sum]; ok {
		return first, true
	}
	t.seen[sum] = path
	return "", false
}
