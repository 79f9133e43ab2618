// Command load-test drives synthetic lift ride traffic against a running
// gateway and reports latency and throughput.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/slopetrace/slopetrace/internal/loadgen"
	"github.com/slopetrace/slopetrace/pkg/logger"
)

func main() {
	var (
		url           = flag.String("url", "http://localhost:8080", "gateway base URL")
		requests      = flag.Int("requests", 200_000, "total events to post")
		workers       = flag.Int("workers", 32, "concurrent submitters")
		retries       = flag.Int("retries", 5, "attempts per event")
		resultsCSV    = flag.String("csv", "output/api_request_log.csv", "per-request CSV path (empty to skip)")
		throughputCSV = flag.String("throughput-csv", "output/throughput.csv", "windowed throughput CSV path (empty to skip)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := loadgen.NewRunner(
		loadgen.NewClient(*url, loadgen.WithRetries(*retries)),
		loadgen.NewGenerator(),
		loadgen.WithTotalRequests(*requests),
		loadgen.WithWorkers(*workers),
	)

	report := runner.Run(ctx)
	report.Summary.Print(os.Stdout)

	if *resultsCSV != "" {
		if err := loadgen.WriteResultsCSV(*resultsCSV, report.Results); err != nil {
			logger.Get().Error(ctx, "failed to write request CSV", logger.Error(err))
		}
	}
	if *throughputCSV != "" {
		if err := loadgen.WriteThroughputCSV(*throughputCSV, report.Windows); err != nil {
			logger.Get().Error(ctx, "failed to write throughput CSV", logger.Error(err))
		}
	}

	if report.Summary.Failed > 0 {
		os.Exit(1)
	}
}
