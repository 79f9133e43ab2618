package loadgen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteResultsCSV writes one row per request attempt:
// startTime,requestType,latency,statusCode. Latency is in milliseconds.
func WriteResultsCSV(path string, results []Result) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"startTime", "requestType", "latency", "statusCode"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Start.Format("2006-01-02 15:04:05"),
			r.Method,
			strconv.FormatInt(r.Latency.Milliseconds(), 10),
			strconv.Itoa(r.StatusCode),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Window is one throughput sample over the run.
type Window struct {
	Elapsed    time.Duration
	Throughput float64
}

// WriteThroughputCSV writes elapsedSeconds,requestsPerSecond rows.
func WriteThroughputCSV(path string, windows []Window) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"elapsedSeconds", "requestsPerSecond"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, win := range windows {
		row := []string{
			strconv.FormatFloat(win.Elapsed.Seconds(), 'f', 1, 64),
			strconv.FormatFloat(win.Throughput, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
