package checker

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"
)

// Metrics aggregates per-check outcomes across a run so the report can
// suggest batch-size and timeout adjustments.
type Metrics struct {
	mu sync.Mutex

	latencies []time.Duration

	errorCounts   map[string]int
	totalSuccess  int
	totalErrors   int
	timeoutErrors int
}

func NewMetrics() *Metrics {
	return &Metrics{
		errorCounts: make(map[string]int),
	}
}

func (m *Metrics) RecordSuccess(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, duration)
	m.totalSuccess++
}

func (m *Metrics) RecordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalErrors++

	msg := err.Error()
	errType := "Other"
	if strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout") {
		errType = "Timeout"
		m.timeoutErrors++
	} else if strings.Contains(msg, "refused") {
		errType = "Conn Refused"
	} else if strings.Contains(msg, "reset") {
		errType = "Conn Reset"
	} else if strings.Contains(msg, "no such host") {
		errType = "DNS Error"
	} else if strings.Contains(msg, "proxyip false") {
		errType = "Rejected"
	} else if strings.HasPrefix(msg, "status ") {
		errType = "Bad Status"
	}

	m.errorCounts[errType]++
}

func (m *Metrics) PrintReport(currentTimeout time.Duration, batchSize int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Println("\n📊 \033[1mCHECK METRICS\033[0m")
	fmt.Println("────────────────────────────────────────")

	if len(m.latencies) > 0 {
		sort.Slice(m.latencies, func(i, j int) bool { return m.latencies[i] < m.latencies[j] })

		p50 := m.latencies[len(m.latencies)/2]
		p90 := m.latencies[int(float64(len(m.latencies))*0.9)]

		fmt.Fprintln(w, "\033[1;36m[ LATENCY (Valid Proxies) ]\033[0m")
		fmt.Fprintf(w, "  Avg:\t%v\n", average(m.latencies))
		fmt.Fprintf(w, "  p50:\t%v\n", p50)
		fmt.Fprintf(w, "  p90:\t%v\n", p90)
		recTimeout := p90 + 500*time.Millisecond
		fmt.Fprintf(w, "  💡 Recommendation:\tset 'timeout' to ~%s (current: %s)\n", recTimeout.Round(time.Second), currentTimeout)
		fmt.Fprintln(w, "")
	}

	fmt.Fprintln(w, "\033[1;36m[ OUTCOMES ]\033[0m")
	fmt.Fprintf(w, "  Valid:\t%d\n", m.totalSuccess)
	fmt.Fprintf(w, "  Failed:\t%d\n", m.totalErrors)

	if m.totalErrors > 0 {
		var kinds []string
		for k := range m.errorCounts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %s:\t%d\n", k, m.errorCounts[k])
		}

		timeoutPct := float64(m.timeoutErrors) / float64(m.totalErrors) * 100
		if timeoutPct > 70 {
			fmt.Fprintln(w, "  --------------------------------")
			fmt.Fprintf(w, "  ⚠️  %0.f%% of failures are timeouts; the endpoint or your uplink\n", timeoutPct)
			fmt.Fprintf(w, "  is saturated. 💡 Recommendation: decrease 'batch_size' (current: %d)\n", batchSize)
		}
	}

	w.Flush()
	fmt.Println("")
}

func average(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return time.Duration(int64(sum) / int64(len(d)))
}
