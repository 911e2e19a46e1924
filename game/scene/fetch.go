package scene

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beka-birhanu/reeborg-api/game"
)

const (
	maxSceneBytes = 1 << 20
	fetchTimeout  = 10 * time.Second
)

// Fetcher downloads scenes over HTTP.
type Fetcher struct {
	Client *http.Client
	Logger game.Logger
}

// Fetch downloads and parses one scene. Any failure, from the request to
// the validation, falls back to the default scene; fallback reports whether
// that happened. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context, url string) (doc *Document, fallback bool) {
	logger := f.Logger
	if logger == nil {
		logger = game.NopLogger()
	}

	doc, err := f.fetch(ctx, url)
	if err != nil {
		logger.Warning(fmt.Sprintf("loading scene from %s failed, using default scene: %s", url, err))
		return Default(), true
	}
	return doc, false
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Document, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSceneBytes))
	if err != nil {
		return nil, err
	}
	return Parse(body)
}
