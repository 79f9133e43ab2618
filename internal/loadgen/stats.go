package loadgen

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Summary holds the latency distribution and throughput of one run.
type Summary struct {
	Total      int
	Success    int
	Failed     int
	Mean       time.Duration
	Median     time.Duration
	P99        time.Duration
	Min        time.Duration
	Max        time.Duration
	Throughput float64 // requests per second over the wall time
}

// Summarize computes latency statistics over all recorded attempts.
func Summarize(results []Result, wall time.Duration) Summary {
	s := Summary{Total: len(results)}
	if len(results) == 0 {
		return s
	}

	latencies := make([]time.Duration, 0, len(results))
	var sum time.Duration
	for _, r := range results {
		latencies = append(latencies, r.Latency)
		sum += r.Latency
		if r.StatusCode == http.StatusCreated {
			s.Success++
		} else {
			s.Failed++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	s.Mean = sum / time.Duration(len(latencies))
	s.Median = percentile(latencies, 50)
	s.P99 = percentile(latencies, 99)
	s.Min = latencies[0]
	s.Max = latencies[len(latencies)-1]
	if wall > 0 {
		s.Throughput = float64(len(results)) / wall.Seconds()
	}
	return s
}

// percentile returns the nearest-rank percentile of sorted latencies.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Print writes the summary in a human-readable block.
func (s Summary) Print(w io.Writer) {
	ms := func(d time.Duration) float64 {
		return float64(d.Microseconds()) / 1000.0
	}
	fmt.Fprintln(w, "---------------------------------------------------")
	fmt.Fprintf(w, "Total requests: %d (success: %d, failed: %d)\n", s.Total, s.Success, s.Failed)
	fmt.Fprintf(w, "Mean response time: %.2f ms\n", ms(s.Mean))
	fmt.Fprintf(w, "Median response time: %.2f ms\n", ms(s.Median))
	fmt.Fprintf(w, "99th percentile response time: %.2f ms\n", ms(s.P99))
	fmt.Fprintf(w, "Min response time: %.2f ms\n", ms(s.Min))
	fmt.Fprintf(w, "Max response time: %.2f ms\n", ms(s.Max))
	fmt.Fprintf(w, "Throughput: %.2f requests/second\n", s.Throughput)
}
