package file

import (
	"fmt"
	"os"

	"bugforge/internal/sources"
)

type FileSource struct{}

func (s *FileSource) Fetch(params map[string]interface{}) (string, error) {
	pathVal, ok := params["path"]
	if !ok {
		return "", fmt.Errorf("missing 'path' in source config")
	}
	path, ok := pathVal.(string)
	if !ok || path == "" {
		return "", fmt.Errorf("'path' must be a non-empty string")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read proxy list: %w", err)
	}
	return string(data), nil
}

func init() {
	sources.Register("file", func() sources.Source { return &FileSource{} })
}
