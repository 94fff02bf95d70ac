package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/elimvote/pkg/logger"
)

// randomIndex returns a uniform index in [0, n) using crypto/rand.
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generateBallots creates count ballots of size distinct names each.
func generateBallots(ctx context.Context, participants []string, size, count int, stats *Stats) ([]Ballot, error) {
	if size < 1 || size > len(participants) {
		return nil, fmt.Errorf("%w: ballot size %d with %d participants", ErrSetup, size, len(participants))
	}
	logger.Get().Info(ctx, "generating ballots",
		logger.Int("count", count),
		logger.Int("ballotSize", size),
		logger.Int("participants", len(participants)))

	ballots := make([]Ballot, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during ballot generation: %w", err)
		}
		ballots = append(ballots, Ballot{
			ID:         uuid.NewString(),
			Selections: pick(participants, size),
		})
	}

	stats.BallotsGenerated = len(ballots)
	return ballots, nil
}

// pick draws size distinct names with a partial Fisher-Yates shuffle.
func pick(names []string, size int) []string {
	pool := append([]string(nil), names...)
	for i := 0; i < size; i++ {
		j := i + randomIndex(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:size]
}

// expectedTally counts the accepted ballots per name.
func expectedTally(ballots []Ballot, outcomes []Outcome) map[string]int {
	tally := make(map[string]int)
	for i, b := range ballots {
		if outcomes[i] != Accepted {
			continue
		}
		for _, name := range b.Selections {
			tally[name]++
		}
	}
	return tally
}
