package file

import (
	"fmt"
	"os"

	"bugforge/internal/logger"
	"bugforge/internal/publishers"
)

type Publisher struct{}

func (p *Publisher) Publish(payload string, params map[string]interface{}) error {
	path, _ := params["path"].(string)
	if path == "" {
		return fmt.Errorf("file publisher requires a 'path' param")
	}

	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Log.Infof("Wrote %d bytes to %s", len(payload), path)
	return nil
}

func init() {
	publishers.Register("file", func() publishers.Publisher { return &Publisher{} })
}
