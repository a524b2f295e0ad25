// Benchmark tool for load-testing Kestrel's routing evaluation.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/payments.csv -url http://localhost:8080
//
// This tool:
//   1. Reads payment records (payment_method, amount, currency, country, ...)
//   2. Sends each payment to Kestrel's /routing/evaluate endpoint
//   3. Tracks which rule matched (or the default selection)
//   4. Reports match distribution, latency, and throughput
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PaymentRow represents a row from the payments CSV.
type PaymentRow struct {
	PaymentMethod string
	Amount        int64
	Currency      string
	Country       string
	CardNetwork   string
}

// Fact is the tagged key/value form the evaluate endpoint accepts.
type Fact struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// EvaluateRequest is the Kestrel API request format.
type EvaluateRequest struct {
	Facts []Fact `json:"facts"`
}

// EvaluateResponse is the Kestrel API response format.
type EvaluateResponse struct {
	RuleName string `json:"rule_name"`
	Matched  bool   `json:"matched"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TotalProcessed int64
	TotalMatched   int64
	TotalDefaulted int64
	TotalErrors    int64

	ProcessingTimeMs int64

	mu       sync.Mutex
	ruleHits map[string]int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to payments CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	merchantID := flag.String("merchant", "benchmark-test", "Merchant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum payments to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each payment result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/payments.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          KESTREL BENCHMARK - Routing Evaluation               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Kestrel URL: %s\n", *baseURL)
	fmt.Printf("Merchant ID: %s\n", *merchantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	// Read payment data
	fmt.Printf("\nReading payments from %s...\n", *csvPath)
	payments, err := readPaymentsCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d payments\n", len(payments))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(payments, *baseURL, *merchantID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readPaymentsCSV(path string, limit int) ([]PaymentRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(col)] = i
	}

	var payments []PaymentRow

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		amount, _ := strconv.ParseInt(record[colIndex["amount"]], 10, 64)

		row := PaymentRow{
			PaymentMethod: record[colIndex["payment_method"]],
			Amount:        amount,
			Currency:      record[colIndex["currency"]],
			Country:       record[colIndex["country"]],
		}
		if i, ok := colIndex["card_network"]; ok {
			row.CardNetwork = record[i]
		}

		payments = append(payments, row)

		if limit > 0 && len(payments) >= limit {
			break
		}
	}

	return payments, nil
}

func runBenchmark(payments []PaymentRow, baseURL, merchantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{ruleHits: make(map[string]int64)}

	// Create work channel
	work := make(chan PaymentRow, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for payment := range work {
				start := time.Now()
				result, err := evaluatePayment(client, baseURL, merchantID, payment)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s %d %s -> %v\n", payment.PaymentMethod, payment.Amount, payment.Currency, err)
					}
					continue
				}

				if result.Matched {
					atomic.AddInt64(&metrics.TotalMatched, 1)
					metrics.mu.Lock()
					metrics.ruleHits[result.RuleName]++
					metrics.mu.Unlock()
				} else {
					atomic.AddInt64(&metrics.TotalDefaulted, 1)
				}

				if verbose {
					rule := result.RuleName
					if !result.Matched {
						rule = "(default)"
					}
					fmt.Printf("  %-12s | Amount: %10d %s | Rule: %s\n",
						payment.PaymentMethod,
						payment.Amount,
						payment.Currency,
						rule,
					)
				}
			}
		}()
	}

	// Send work
	for _, payment := range payments {
		work <- payment
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func evaluatePayment(client *http.Client, baseURL, merchantID string, payment PaymentRow) (*EvaluateResponse, error) {
	facts := []Fact{
		{Type: "payment_method", Value: payment.PaymentMethod},
		{Type: "payment_amount", Value: map[string]int64{"number": payment.Amount}},
		{Type: "payment_currency", Value: payment.Currency},
	}
	if payment.Country != "" {
		facts = append(facts, Fact{Type: "billing_country", Value: payment.Country})
	}
	if payment.CardNetwork != "" {
		facts = append(facts, Fact{Type: "card_network", Value: payment.CardNetwork})
	}

	body, err := json.Marshal(EvaluateRequest{Facts: facts})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/routing/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Merchant-ID", merchantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 EVALUATION STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Rule Matched:     %d\n", m.TotalMatched)
	fmt.Printf("   Default Fallback: %d\n", m.TotalDefaulted)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	if len(m.ruleHits) > 0 {
		fmt.Printf("\n📈 RULE DISTRIBUTION\n")
		names := make([]string, 0, len(m.ruleHits))
		for name := range m.ruleHits {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return m.ruleHits[names[i]] > m.ruleHits[names[j]]
		})
		for _, name := range names {
			hits := m.ruleHits[name]
			pct := 100 * float64(hits) / float64(m.TotalProcessed)
			fmt.Printf("   %-30s %8d (%.2f%%)\n", name, hits, pct)
		}
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f payments/sec\n", tps)
	}

	fmt.Println()
}
