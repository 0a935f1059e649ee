package credentials

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvAPIKey = "GEMINI_API_KEY"
	KeyFile   = "gemini_api_key"
)

// Resolve returns the Gemini API key, preferring the environment over
// <root>/credentials/gemini_api_key. It returns "" when neither source has a
// non-empty value.
func Resolve(root string) string {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key
	}
	return readKeyFile(Path(root))
}

func Path(root string) string {
	return filepath.Join(root, "credentials", KeyFile)
}

func readKeyFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
