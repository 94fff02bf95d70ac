package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/elimvote/internal/loadtest"
	"github.com/okian/elimvote/pkg/logger"
)

// Default configuration constants.
const (
	defaultVoters      = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		voters     = flag.Int("voters", defaultVoters, "Number of ballots to generate and submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		secret     = flag.String("secret", os.Getenv("ELIMVOTE_ADMIN_SECRET"), "Admin secret; enables counter verification")
		revote     = flag.Bool("revote", false, "Every accepted voter tries a second ballot")
		finalize   = flag.Bool("finalize", false, "Close and publish the round afterwards")
		outputFile = flag.String("output", "", "Output file for generated ballots")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := loadtest.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:     *baseURL,
		Voters:      *voters,
		Workers:     *workers,
		Timeout:     *timeout,
		AdminSecret: *secret,
		Revote:      *revote,
		Finalize:    *finalize,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
