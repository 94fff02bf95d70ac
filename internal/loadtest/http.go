package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/elimvote/pkg/logger"
)

// HTTPClient wraps http.Client with a base URL and its own cookie jar, so
// each client is one voter (or one admin session) to the service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a client with a fresh cookie jar.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout, Jar: jar},
		baseURL: baseURL,
	}
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx bodies
// are decoded as the service error payload.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, errorBody, error) {
	var (
		reader io.Reader
		failed errorBody
	)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, failed, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, failed, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, failed, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, failed, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		_ = json.Unmarshal(data, &failed)
		return resp.StatusCode, failed, nil
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, failed, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, failed, nil
}

// expect runs do and turns any status other than want into an error.
func (c *HTTPClient) expect(ctx context.Context, want int, method, path string, body, out any) error {
	status, failed, err := c.do(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%w: %s %s: %d %s %s", ErrUnexpectedStatus, method, path, status, failed.Code, failed.Message)
	}
	return nil
}

type ballotRequest struct {
	Selections []string `json:"selections"`
}

// submitBallots casts every ballot from its own voter identity using a pool
// of workers and returns the outcome per ballot.
func submitBallots(ctx context.Context, config *Config, ballots []Ballot, stats *Stats) []Outcome {
	log := logger.Get()
	log.Info(ctx, "submitting ballots", logger.Int("ballots", len(ballots)), logger.Int("workers", config.Workers))

	outcomes := make([]Outcome, len(ballots))
	var (
		submitted, accepted, rejected, busy, failed int64
		refused, doubled                            int64
		lastReport                                  atomic.Int64
	)

	indices := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indices {
				if ctx.Err() != nil {
					outcomes[index] = Failed
					atomic.AddInt64(&failed, 1)
					continue
				}

				voter := newHTTPClient(config.BaseURL, config.Timeout)
				outcome := submitSingleBallot(ctx, voter, ballots[index])
				outcomes[index] = outcome

				atomic.AddInt64(&submitted, 1)
				switch outcome {
				case Accepted:
					atomic.AddInt64(&accepted, 1)
				case Rejected:
					atomic.AddInt64(&rejected, 1)
				case Busy:
					atomic.AddInt64(&busy, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}

				if config.Revote && outcome == Accepted {
					switch submitSingleBallot(ctx, voter, ballots[index]) {
					case Accepted:
						atomic.AddInt64(&doubled, 1)
					case Rejected:
						atomic.AddInt64(&refused, 1)
					}
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(ProgressInterval) && lastReport.CompareAndSwap(last, now) && config.Verbose {
					log.Info(ctx, "submission progress",
						logger.Int("submitted", int(atomic.LoadInt64(&submitted))),
						logger.Int("total", len(ballots)),
						logger.Int("accepted", int(atomic.LoadInt64(&accepted))),
						logger.Int("busy", int(atomic.LoadInt64(&busy))))
				}
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range ballots {
			select {
			case <-ctx.Done():
				return
			case indices <- i:
			}
		}
	}()

	wg.Wait()

	// ballots never handed out before cancellation
	for i, o := range outcomes {
		if o == "" {
			outcomes[i] = Failed
			failed++
		}
	}

	stats.BallotsSubmitted = int(submitted)
	stats.BallotsAccepted = int(accepted)
	stats.BallotsRejected = int(rejected)
	stats.BallotsBusy = int(busy)
	stats.BallotsFailed = int(failed)
	stats.RevotesRefused = int(refused)
	stats.RevotesAccepted = int(doubled)

	log.Info(ctx, "ballot submission completed",
		logger.Int("accepted", stats.BallotsAccepted),
		logger.Int("rejected", stats.BallotsRejected),
		logger.Int("busy", stats.BallotsBusy),
		logger.Int("failed", stats.BallotsFailed))
	return outcomes
}

// submitSingleBallot posts one ballot and classifies the response.
func submitSingleBallot(ctx context.Context, voter *HTTPClient, ballot Ballot) Outcome {
	status, failed, err := voter.do(ctx, http.MethodPost, "/ballots", ballotRequest{Selections: ballot.Selections}, nil)
	if err != nil {
		return Failed
	}
	switch {
	case status == http.StatusCreated:
		return Accepted
	case status == http.StatusTooManyRequests || failed.Code == codeBusy:
		return Busy
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return Rejected
	default:
		return Failed
	}
}
