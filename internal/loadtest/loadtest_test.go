package loadtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/elimvote/internal/adapters/http/api"
	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/adapters/repository"
	service "github.com/okian/elimvote/internal/app"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	repo := repository.New(kv, repository.WithRoster([]string{"Ann", "Ben", "Cat", "Dan", "Eve", "Fay"}))
	svc := service.New(repo, repository.NewMarkers(kv, round.Default()), service.WithAdminSecret("admin123"))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestPick(t *testing.T) {
	Convey("Given a roster", t, func() {
		names := []string{"Ann", "Ben", "Cat", "Dan"}

		Convey("When many ballots are drawn", func() {
			Convey("Then every ballot has distinct names from the roster", func() {
				for i := 0; i < 200; i++ {
					got := pick(names, 3)
					So(got, ShouldHaveLength, 3)
					seen := map[string]bool{}
					for _, n := range got {
						So(names, ShouldContain, n)
						So(seen[n], ShouldBeFalse)
						seen[n] = true
					}
				}
				So(names, ShouldResemble, []string{"Ann", "Ben", "Cat", "Dan"})
			})
		})
	})
}

func TestExpectedTally(t *testing.T) {
	Convey("Given ballots with mixed outcomes", t, func() {
		ballots := []Ballot{
			{Selections: []string{"Ann", "Ben"}},
			{Selections: []string{"Ann", "Cat"}},
			{Selections: []string{"Ben", "Cat"}},
		}
		outcomes := []Outcome{Accepted, Busy, Accepted}

		Convey("Then only accepted ballots are counted", func() {
			So(expectedTally(ballots, outcomes), ShouldResemble, map[string]int{"Ann": 1, "Ben": 2, "Cat": 1})
		})
	})
}

func TestVerifyCounters(t *testing.T) {
	Convey("Given counters before and after a run", t, func() {
		ctx := context.Background()
		before := map[string]int{"Ann": 2, "Ben": 0}

		Convey("When the delta matches", func() {
			stats := &Stats{}
			err := verifyCounters(ctx, before, map[string]int{"Ann": 5, "Ben": 1}, map[string]int{"Ann": 3, "Ben": 1}, stats)

			Convey("Then verification passes", func() {
				So(err, ShouldBeNil)
				So(stats.CountersVerified, ShouldBeTrue)
			})
		})

		Convey("When a vote went missing", func() {
			err := verifyCounters(ctx, before, map[string]int{"Ann": 4, "Ben": 1}, map[string]int{"Ann": 3, "Ben": 1}, &Stats{})

			Convey("Then verification fails", func() {
				So(err, ShouldWrap, ErrVerification)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := startServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		config := &Config{
			BaseURL:     srv.URL,
			Voters:      120,
			Workers:     8,
			Timeout:     5 * time.Second,
			AdminSecret: "admin123",
			Revote:      true,
			Finalize:    true,
			OutputFile:  filepath.Join(t.TempDir(), "out", "ballots.json"),
		}

		Convey("When a full run is executed", func() {
			stats, err := Run(ctx, config)

			Convey("Then every ballot counts once and the standings verify", func() {
				So(err, ShouldBeNil)
				So(stats.Round, ShouldEqual, "day1")
				So(stats.BallotsAccepted, ShouldEqual, 120)
				So(stats.RevotesRefused, ShouldEqual, 120)
				So(stats.RevotesAccepted, ShouldEqual, 0)
				So(stats.CountersVerified, ShouldBeTrue)
				So(stats.StandingsVerified, ShouldBeTrue)
				_, statErr := os.Stat(config.OutputFile)
				So(statErr, ShouldBeNil)
			})

			Convey("Then a second run finds the round closed", func() {
				So(err, ShouldBeNil)
				_, err := Run(ctx, config)
				So(err, ShouldWrap, ErrSetup)
			})
		})

		Convey("When finalize is asked for without a secret", func() {
			config.AdminSecret = ""
			_, err := Run(ctx, config)

			Convey("Then the run refuses to start", func() {
				So(err, ShouldWrap, ErrSetup)
			})
		})

		Convey("When the secret is wrong", func() {
			config.AdminSecret = "nope"
			_, err := Run(ctx, config)

			Convey("Then login fails", func() {
				So(err, ShouldWrap, ErrUnexpectedStatus)
			})
		})
	})
}
