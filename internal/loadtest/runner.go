package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/elimvote/internal/domain/types"
	"github.com/okian/elimvote/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete load run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting elimvote load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("voters", config.Voters),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("revote", config.Revote),
		logger.Bool("finalize", config.Finalize))

	if config.Workers < 1 || config.Voters < 1 {
		return stats, fmt.Errorf("%w: voters and workers must be positive", ErrSetup)
	}
	if config.Finalize && config.AdminSecret == "" {
		return stats, fmt.Errorf("%w: finalize needs the admin secret", ErrSetup)
	}

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Read the open round
	view, err := currentView(ctx, config)
	if err != nil {
		return stats, err
	}
	stats.Round = view.CurrentRound

	// Step 3: Baseline counters
	var (
		admin  *adminSession
		before map[string]int
	)
	if config.AdminSecret != "" {
		if admin, err = login(ctx, config); err != nil {
			return stats, err
		}
		if before, err = admin.counters(ctx, view.CurrentRound); err != nil {
			return stats, err
		}
	}

	// Step 4: Generate ballots
	ballots, err := generateBallots(ctx, view.Participants, view.BallotSize, config.Voters, stats)
	if err != nil {
		return stats, fmt.Errorf("ballot generation failed: %w", err)
	}

	// Step 5: Submit ballots concurrently
	outcomes := submitBallots(ctx, config, ballots, stats)
	if stats.RevotesAccepted > 0 {
		return stats, fmt.Errorf("%w: %d voters voted twice", ErrVerification, stats.RevotesAccepted)
	}

	// Step 6: Verify counters and, optionally, the published standings
	if admin != nil {
		after, err := admin.counters(ctx, view.CurrentRound)
		if err != nil {
			return stats, err
		}
		if err := verifyCounters(ctx, before, after, expectedTally(ballots, outcomes), stats); err != nil {
			return stats, err
		}
		if config.Finalize {
			if err := admin.closeAndPublish(ctx); err != nil {
				return stats, err
			}
			if err := verifyStandings(ctx, config, view.CurrentRound, after, stats); err != nil {
				return stats, err
			}
		}
	}

	// Step 7: Save ballots to file
	if config.OutputFile != "" {
		if err := saveBallotsToFile(ctx, config.OutputFile, ballots); err != nil {
			log.Warn(ctx, "failed to save ballots to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	c := newHTTPClient(config.BaseURL, config.Timeout)
	if err := c.expect(ctx, http.StatusOK, http.MethodGet, "/healthz", nil, nil); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// currentView reads the voter view and requires an open round.
func currentView(ctx context.Context, config *Config) (types.View, error) {
	var view types.View
	c := newHTTPClient(config.BaseURL, config.Timeout)
	if err := c.expect(ctx, http.StatusOK, http.MethodGet, "/state", nil, &view); err != nil {
		return view, fmt.Errorf("read state: %w", err)
	}
	if !view.CanVote {
		return view, fmt.Errorf("%w: round %s is not accepting ballots", ErrSetup, view.CurrentRound)
	}
	return view, nil
}

// saveBallotsToFile writes the generated ballots as a JSON array.
func saveBallotsToFile(ctx context.Context, filename string, ballots []Ballot) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(ballots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ballots: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "ballots saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, ballotsPerSecond float64
	if stats.BallotsSubmitted > 0 {
		acceptRate = float64(stats.BallotsAccepted) / float64(stats.BallotsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		ballotsPerSecond = float64(stats.BallotsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("round", stats.Round),
		logger.Int("ballotsGenerated", stats.BallotsGenerated),
		logger.Int("ballotsSubmitted", stats.BallotsSubmitted),
		logger.Int("ballotsAccepted", stats.BallotsAccepted),
		logger.Int("ballotsRejected", stats.BallotsRejected),
		logger.Int("ballotsBusy", stats.BallotsBusy),
		logger.Int("ballotsFailed", stats.BallotsFailed),
		logger.Int("revotesRefused", stats.RevotesRefused),
		logger.Bool("countersVerified", stats.CountersVerified),
		logger.Bool("standingsVerified", stats.StandingsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("ballotsPerSecond", ballotsPerSecond))
}
