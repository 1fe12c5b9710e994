package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/reach-http/reach/internal/bench"
	"github.com/reach-http/reach/internal/output"
	"github.com/reach-http/reach/rest"
)

var benchCmd = &cobra.Command{
	Use:   "bench URL",
	Short: "Measure GET latency for a URL",
	Long: `Bench fires a fixed number of GET requests at a URL from a pool of
concurrent workers and reports the latency distribution as HDR-histogram
percentiles. Requests are independent single shots: no keep-alive tuning,
no retries, no ramping.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requests, _ := cmd.Flags().GetInt("requests")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		headers, _ := cmd.Flags().GetStringArray("header")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		noColor, _ := cmd.Flags().GetBool("no-color")

		if requests < 1 {
			fmt.Fprintln(os.Stderr, "Error: --requests must be at least 1")
			os.Exit(1)
		}
		if concurrency < 1 || concurrency > requests {
			fmt.Fprintln(os.Stderr, "Error: --concurrency must be between 1 and --requests")
			os.Exit(1)
		}

		base, segments, query := parseURL(args[0])
		client := rest.NewClient(base,
			rest.WithPath(segments...),
			rest.WithTimeout(timeout),
			rest.WithHeaders(parseHeaders(headers)),
		)

		var requestOptions []rest.RequestOption
		if len(query) > 0 {
			requestOptions = append(requestOptions, rest.WithQueryParams(query))
		}

		recorder := bench.NewRecorder()
		jobs := make(chan struct{})

		var wg sync.WaitGroup
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range jobs {
					start := time.Now()
					_, err := client.Get(context.Background(), requestOptions...)
					recorder.Record(time.Since(start), err)
				}
			}()
		}

		benchStart := time.Now()
		for i := 0; i < requests; i++ {
			jobs <- struct{}{}
		}
		close(jobs)
		wg.Wait()
		elapsed := time.Since(benchStart)

		fmt.Print(output.FormatBenchSummary(recorder.Summary(), elapsed, noColor))
	},
}

func init() {
	benchCmd.Flags().IntP("requests", "n", 100, "Total number of requests")
	benchCmd.Flags().IntP("concurrency", "c", 10, "Number of concurrent workers")
	benchCmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	benchCmd.Flags().DurationP("timeout", "t", 30*time.Second, "Per-request timeout")
	benchCmd.Flags().Bool("no-color", false, "Disable colored output")
}
