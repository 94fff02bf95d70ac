// Command votectl runs one vote command against the configured store as the
// local profile, the single voter of an on-device deployment.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/adapters/repository"
	service "github.com/okian/elimvote/internal/app"
	"github.com/okian/elimvote/internal/config"
	"github.com/okian/elimvote/internal/domain/confirm"
	"github.com/okian/elimvote/pkg/logger"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `usage: votectl [-secret s] [-yes] <command> [args]

voter commands:
  status                 current round, roster and whether you have voted
  vote NAME...           cast one ballot for the current round
  standings [ROUND]      ranked standings (hidden until published)
  history                archived standings per round

admin commands (need -secret):
  admin                  admin view with live counters
  close                  close voting (needs -yes)
  publish                publish the current round
  reset                  archive the round and advance (needs -yes)
  wipe ROUND             zero and reopen ROUND (needs -yes)
  add NAME               add a participant
  remove NAME            remove a participant
`

// cli runs commands against a started service.
type cli struct {
	svc    *service.Service
	out    io.Writer
	secret string
	yes    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("votectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = io.WriteString(stderr, usage) }
	secret := fs.String("secret", "", "admin secret")
	yes := fs.Bool("yes", false, "confirm close, reset and wipe")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return 1
	}
	// keep stdout for command output
	if err := logger.InitWith(stderr, cfg.LogFormat); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 1
	}
	_ = logger.SetLevelString("warn")

	kv, err := kvstore.Open(ctx, cfg.StoreConfig())
	if err != nil {
		fmt.Fprintln(stderr, "failed to open store:", err)
		return 1
	}
	defer func() { _ = kv.Close() }()

	svc := service.New(
		repository.New(kv,
			repository.WithRounds(cfg.Sequence()),
			repository.WithRoster(cfg.Roster),
			repository.WithDocumentKey(cfg.DocumentKey),
		),
		repository.NewMarkers(kv, cfg.Sequence()),
		service.WithBallotSize(cfg.BallotSize),
		service.WithLeaderboardSize(cfg.LeaderboardSize),
		service.WithAdminSecret(cfg.AdminSecret),
	)
	if err := svc.Start(ctx); err != nil {
		fmt.Fprintln(stderr, "failed to start:", err)
		return 1
	}
	defer svc.Stop()

	c := &cli{svc: svc, out: stdout, secret: *secret, yes: *yes}
	if err := c.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(stderr, err)
			_, _ = io.WriteString(stderr, usage)
			return 2
		}
		fmt.Fprintf(stderr, "%s: %v\n", service.CodeOf(err), err)
		return 1
	}
	return 0
}

// dispatch runs one command and prints its result as JSON.
func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	var (
		res any
		err error
	)
	switch cmd {
	case "status":
		res, err = c.svc.View(ctx, repository.LocalProfile)
	case "vote":
		if len(args) == 0 {
			return fmt.Errorf("%w: vote needs at least one name", ErrUsage)
		}
		res, err = c.svc.SubmitBallot(ctx, repository.LocalProfile, args)
	case "standings":
		var key string
		if len(args) > 0 {
			key = args[0]
		}
		res, err = c.svc.Standings(ctx, key, c.secret != "" && c.svc.AuthenticateAdmin(ctx, c.secret) == nil)
	case "history":
		res, err = c.svc.History(ctx)
	case "admin", "close", "publish", "reset", "wipe", "add", "remove":
		res, err = c.admin(ctx, cmd, args)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (c *cli) admin(ctx context.Context, cmd string, args []string) (any, error) {
	if err := c.svc.AuthenticateAdmin(ctx, c.secret); err != nil {
		return nil, err
	}
	arg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%w: %s needs exactly one argument", ErrUsage, cmd)
		}
		return args[0], nil
	}

	switch cmd {
	case "admin":
		return c.svc.AdminView(ctx)
	case "publish":
		return c.svc.AdminPublish(ctx)
	case "add":
		name, err := arg()
		if err != nil {
			return nil, err
		}
		return c.svc.AdminAddParticipant(ctx, name)
	case "remove":
		name, err := arg()
		if err != nil {
			return nil, err
		}
		return c.svc.AdminRemoveParticipant(ctx, name)
	case "close":
		token, err := c.confirm(ctx, confirm.CloseVoting, "")
		if err != nil {
			return nil, err
		}
		return c.svc.AdminCloseVoting(ctx, token)
	case "reset":
		token, err := c.confirm(ctx, confirm.ResetRound, "")
		if err != nil {
			return nil, err
		}
		return c.svc.AdminResetRound(ctx, token)
	default:
		key, err := arg()
		if err != nil {
			return nil, err
		}
		token, err := c.confirm(ctx, confirm.WipeRound, key)
		if err != nil {
			return nil, err
		}
		return c.svc.AdminWipe(ctx, key, token)
	}
}

// confirm issues a token only when -yes was given. Without it the command
// fails with CONFIRMATION_REQUIRED and nothing changes.
func (c *cli) confirm(ctx context.Context, kind confirm.Kind, roundKey string) (string, error) {
	if !c.yes {
		return "", fmt.Errorf("%w: rerun with -yes to %s", confirm.ErrConfirmationRequired, kind)
	}
	return c.svc.RequestConfirmation(ctx, kind, roundKey)
}
