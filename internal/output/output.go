package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const filePrefix = "nano-banana-"

// Dir is where generated images land when no explicit path is given.
func Dir(root string) string {
	return filepath.Join(root, "outputs", "images")
}

// DefaultPath names an image after the unix second it was generated in. Two
// runs within the same second share a name.
func DefaultPath(root string, now time.Time) string {
	return filepath.Join(Dir(root), filePrefix+strconv.FormatInt(now.Unix(), 10)+".png")
}

// Write stores data at path in one write, creating parent directories and
// replacing any existing file.
func Write(path string, data []byte) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write image: %w", err)
	}
	return len(data), nil
}
