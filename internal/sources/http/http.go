package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"bugforge/internal/logger"
	"bugforge/internal/sources"
)

type URLSource struct{}

func (s *URLSource) Fetch(params map[string]interface{}) (string, error) {
	urlVal, ok := params["url"]
	if !ok {
		return "", fmt.Errorf("missing 'url' in source config")
	}
	targetURL, ok := urlVal.(string)
	if !ok || targetURL == "" {
		return "", fmt.Errorf("'url' must be a non-empty string")
	}

	client := &http.Client{Timeout: 60 * time.Second}

	logger.Log.Debugf("Fetching URL: %s", targetURL)
	resp, err := client.Get(targetURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}

func init() {
	sources.Register("http", func() sources.Source { return &URLSource{} })
}
