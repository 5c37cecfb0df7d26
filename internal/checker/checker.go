// Package checker validates proxies against the external proxyip
// endpoint in bounded batches.
package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"bugforge/internal/model"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	BatchSize int
}

// Progress is emitted after every individual check so callers can
// report fine-grained counters, not per-batch jumps.
type Progress struct {
	Checked int
	Valid   int
	Invalid int
	Proxy   model.Proxy
	OK      bool
}

type Checker struct {
	cfg     Config
	client  *http.Client
	Metrics *Metrics
}

func New(cfg Config) *Checker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Checker{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		Metrics: NewMetrics(),
	}
}

// checkResponse is the endpoint's payload. Only proxyip is consumed;
// the body arrives either as a bare object or a single-element array.
type checkResponse struct {
	ProxyIP bool `json:"proxyip"`
}

func decodeResult(body []byte) bool {
	var obj checkResponse
	if err := json.Unmarshal(body, &obj); err == nil {
		return obj.ProxyIP
	}
	var arr []checkResponse
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 {
		return arr[0].ProxyIP
	}
	return false
}

// checkOne performs a single liveness probe. The endpoint is treated
// as untrusted: transport errors, non-200 statuses and malformed JSON
// all reduce to "not valid" and never escape as errors.
func (c *Checker) checkOne(ctx context.Context, p model.Proxy) bool {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	target := fmt.Sprintf("%s/%s:%s", strings.TrimRight(c.cfg.BaseURL, "/"), p.IP, p.Port)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		c.Metrics.RecordFailure(err)
		return false
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.Metrics.RecordFailure(err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.Metrics.RecordFailure(fmt.Errorf("status %d", resp.StatusCode))
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.Metrics.RecordFailure(err)
		return false
	}

	ok := decodeResult(body)
	if ok {
		c.Metrics.RecordSuccess(elapsed)
	} else {
		c.Metrics.RecordFailure(errors.New("proxyip false"))
	}
	return ok
}

// Run checks proxies in batches of BatchSize. A batch fully resolves
// before the next one starts, bounding outstanding connections to the
// batch size. Each check carries its own timeout and cancelling the
// context abandons in-flight checks: results racing the cancellation
// are discarded, already-accumulated valid proxies are kept and
// returned.
func (c *Checker) Run(ctx context.Context, proxies []model.Proxy, onProgress func(Progress)) []model.Proxy {
	var (
		mu      sync.Mutex
		valid   []model.Proxy
		checked int
		invalid int
	)

	total := len(proxies)
	for i := 0; i < total; i += c.cfg.BatchSize {
		if ctx.Err() != nil {
			break
		}

		end := i + c.cfg.BatchSize
		if end > total {
			end = total
		}
		batch := proxies[i:end]

		var wg sync.WaitGroup
		for _, p := range batch {
			wg.Add(1)
			go func(proxy model.Proxy) {
				defer wg.Done()
				ok := c.checkOne(ctx, proxy)

				mu.Lock()
				defer mu.Unlock()
				if ctx.Err() != nil {
					// Raced the cancellation; drop the result.
					return
				}
				checked++
				proxy.Valid = ok
				proxy.CheckedAt = time.Now()
				if ok {
					valid = append(valid, proxy)
				} else {
					invalid++
				}
				if onProgress != nil {
					onProgress(Progress{
						Checked: checked,
						Valid:   len(valid),
						Invalid: invalid,
						Proxy:   proxy,
						OK:      ok,
					})
				}
			}(p)
		}
		wg.Wait()
	}

	mu.Lock()
	defer mu.Unlock()
	return valid
}
