package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/elimvote/internal/domain/types"
	"github.com/okian/elimvote/pkg/logger"
)

// adminSession is a logged-in admin client.
type adminSession struct {
	*HTTPClient
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type confirmationRequest struct {
	Action string `json:"action"`
}

type confirmationResponse struct {
	Token string `json:"token"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

func login(ctx context.Context, config *Config) (*adminSession, error) {
	c := newHTTPClient(config.BaseURL, config.Timeout)
	if err := c.expect(ctx, http.StatusOK, http.MethodPost, "/admin/login", loginRequest{Secret: config.AdminSecret}, nil); err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	return &adminSession{HTTPClient: c}, nil
}

// counters returns the per-name counters of roundKey.
func (a *adminSession) counters(ctx context.Context, roundKey string) (map[string]int, error) {
	var view types.AdminView
	if err := a.expect(ctx, http.StatusOK, http.MethodGet, "/admin/state", nil, &view); err != nil {
		return nil, fmt.Errorf("admin state: %w", err)
	}
	out := make(map[string]int, len(view.Counters))
	for _, c := range view.Counters {
		out[c.Name] = c.Votes[roundKey]
	}
	return out, nil
}

// closeAndPublish closes voting with a fresh confirmation token, then
// publishes the round.
func (a *adminSession) closeAndPublish(ctx context.Context) error {
	var tok confirmationResponse
	if err := a.expect(ctx, http.StatusCreated, http.MethodPost, "/admin/confirmations", confirmationRequest{Action: "close"}, &tok); err != nil {
		return fmt.Errorf("request close confirmation: %w", err)
	}
	if err := a.expect(ctx, http.StatusOK, http.MethodPost, "/admin/close", tokenRequest{Token: tok.Token}, nil); err != nil {
		return fmt.Errorf("close voting: %w", err)
	}
	if err := a.expect(ctx, http.StatusOK, http.MethodPost, "/admin/publish", nil, nil); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// verifyCounters checks after - before == expected for every name.
func verifyCounters(ctx context.Context, before, after, expected map[string]int, stats *Stats) error {
	var mismatches []string
	for name, now := range after {
		if got, want := now-before[name], expected[name]; got != want {
			mismatches = append(mismatches, fmt.Sprintf("%s: counted %d, cast %d", name, got, want))
		}
	}
	for name := range expected {
		if _, ok := after[name]; !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: missing from roster", name))
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %v", ErrVerification, mismatches)
	}

	stats.CountersVerified = true
	logger.Get().Info(ctx, "counters match submitted ballots", logger.Int("participants", len(after)))
	return nil
}

// verifyStandings checks that published standings agree with the counters
// and are ordered by votes.
func verifyStandings(ctx context.Context, config *Config, roundKey string, counters map[string]int, stats *Stats) error {
	c := newHTTPClient(config.BaseURL, config.Timeout)
	var rows []types.Standing
	if err := c.expect(ctx, http.StatusOK, http.MethodGet, "/standings?round="+url.QueryEscape(roundKey), nil, &rows); err != nil {
		return fmt.Errorf("standings: %w", err)
	}
	if len(rows) == 0 && len(counters) > 0 {
		return fmt.Errorf("%w: empty standings", ErrVerification)
	}
	for i, row := range rows {
		if row.Rank != i+1 {
			return fmt.Errorf("%w: row %d has rank %d", ErrVerification, i, row.Rank)
		}
		if want := counters[row.Name]; row.Votes != want {
			return fmt.Errorf("%w: %s shows %d votes, counter is %d", ErrVerification, row.Name, row.Votes, want)
		}
		if i > 0 && row.Votes > rows[i-1].Votes {
			return fmt.Errorf("%w: %s ranked below fewer votes", ErrVerification, row.Name)
		}
	}

	stats.StandingsVerified = true
	if len(rows) > 0 {
		logger.Get().Info(ctx, "published standings verified",
			logger.String("leader", rows[0].Name),
			logger.Int("votes", rows[0].Votes))
	}
	return nil
}
