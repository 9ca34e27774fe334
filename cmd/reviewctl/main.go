package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"landlord_reviews/internal/adapters/observability"
	"landlord_reviews/internal/adapters/reviewsapi"
	"landlord_reviews/internal/app"
	"landlord_reviews/internal/domain"
	"landlord_reviews/internal/shared"
)

func main() {
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd(cfg shared.Config) *cobra.Command {
	var (
		baseURL string
		rps     int
	)
	root := &cobra.Command{
		Use:          "reviewctl",
		Short:        "Command line client for the landlord reviews API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", cfg.APIBaseURL, "API base URL")
	root.PersistentFlags().IntVar(&rps, "rps", cfg.ImportRPS, "max requests per second")

	client := func() (*reviewsapi.Client, error) { return reviewsapi.New(baseURL, rps) }

	root.AddCommand(importCmd(cfg, client), nearCmd(client))
	return root
}

func importCmd(cfg shared.Config, client func() (*reviewsapi.Client, error)) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "import <file.ndjson>",
		Short: "Submit one review per line of a newline-delimited JSON file ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := client()
			if err != nil {
				return err
			}
			in := io.Reader(os.Stdin)
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			if workers < 1 {
				workers = 1
			}
			st, err := importReviews(cmd.Context(), cl, in, workers)
			log.Info().
				Int64("accepted", st.accepted.Load()).
				Int64("rejected", st.rejected.Load()).
				Int64("failed", st.failed.Load()).
				Msg("import completed")
			if err != nil {
				return err
			}
			if st.failed.Load() > 0 {
				return fmt.Errorf("%d reviews could not be submitted", st.failed.Load())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", cfg.ImportWorkers, "concurrent submissions")
	return cmd
}

type importStats struct {
	accepted, rejected, failed atomic.Int64
}

type submitter interface {
	Submit(ctx context.Context, in domain.ReviewInput) (domain.Review, error)
}

// importReviews submits every non-blank line of r with at most workers
// requests in flight. Rejected lines are logged and counted, never retried.
func importReviews(ctx context.Context, cl submitter, r io.Reader, workers int) (*importStats, error) {
	st := &importStats{}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	line := 0
	var scanErr error
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		// same loose field typing and checks as the API
		var req app.SubmitReview
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed line")
			st.rejected.Add(1)
			continue
		}
		in, err := req.Input()
		if err != nil {
			log.Warn().Int("line", line).Str("reason", err.Error()).Msg("review rejected")
			st.rejected.Add(1)
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			scanErr = err
			break
		}
		wg.Add(1)
		go func(n int, in domain.ReviewInput) {
			defer wg.Done()
			defer sem.Release(1)

			rv, err := cl.Submit(ctx, in)
			var ve *domain.ValidationError
			switch {
			case errors.As(err, &ve):
				log.Warn().Int("line", n).Str("reason", ve.Error()).Msg("review rejected")
				st.rejected.Add(1)
			case err != nil:
				log.Error().Int("line", n).Err(err).Msg("submit failed")
				st.failed.Add(1)
			default:
				log.Debug().Int("line", n).Str("id", rv.ID).Msg("review stored")
				st.accepted.Add(1)
			}
		}(line, in)
	}
	wg.Wait()

	if scanErr == nil {
		scanErr = sc.Err()
	}
	return st, scanErr
}

func nearCmd(client func() (*reviewsapi.Client, error)) *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "near",
		Short: "Print the reviews stored around a coordinate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := client()
			if err != nil {
				return err
			}
			out, err := cl.Near(cmd.Context(), lat, lng)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
