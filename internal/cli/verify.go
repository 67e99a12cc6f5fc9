package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvickers/citecheck/internal/cache"
	"github.com/mvickers/citecheck/internal/logging"
	"github.com/mvickers/citecheck/internal/model"
	"github.com/mvickers/citecheck/internal/verify"
)

var (
	verifyAsync    bool
	verifyTimeout  time.Duration
	verifyPollWait time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <citation> [citation ...]",
	Short: "Verify citations against the canonical database",
	Long: `Verify resolves citation strings through the tiered verification chain:
batch citation lookup first, per-citation search for whatever remains,
and a fallback that reports the rest as unverified.

With --async the citations run as a background job and progress is
polled until the job completes.

Example:
  citecheck verify "347 U.S. 483"
  citecheck verify "347 U.S. 483" "98 Wn.2d 654" --async`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyAsync, "async", false, "run verification as a background job and poll for progress")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall verification timeout")
	verifyCmd.Flags().DurationVar(&verifyPollWait, "poll-interval", 250*time.Millisecond, "status poll interval in async mode")
	verifyCmd.Flags().StringVar(&verifyBaseURL, "base-url", "", "verification API base URL (overrides config)")
	verifyCmd.Flags().StringVar(&verifyAPIToken, "api-token", "", "verification API token (overrides config and env)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Verification.Enabled = true
	if verifyBaseURL != "" {
		cfg.Verification.BaseURL = verifyBaseURL
	}
	if verifyAPIToken != "" {
		cfg.Verification.APIToken = verifyAPIToken
	}

	logger := logging.New(verbose)
	defer func() { _ = logger.Sync() }()

	var backend cache.Cache
	if cfg.Cache.Enabled {
		backend = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	src := verify.NewHTTPSource(cfg.HTTP, cfg.Verification)
	orch := verify.NewOrchestrator(
		cfg.Verification,
		verify.DefaultTiers(src),
		verify.NewRecordCache(backend, cfg.Verification.CacheTTL),
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	var results map[string]model.VerificationRecord
	if verifyAsync {
		var err error
		results, err = runAsyncJob(orch, cfg, args)
		if err != nil {
			return err
		}
	} else {
		var err error
		results, err = orch.Verify(ctx, args, nil)
		if err != nil {
			return fmt.Errorf("verify failed: %w", err)
		}
	}

	printRecords(args, results)
	return nil
}

// runAsyncJob submits the citations as a background job and polls its
// status until a terminal state.
func runAsyncJob(orch *verify.Orchestrator, cfg *model.Config, citations []string) (map[string]model.VerificationRecord, error) {
	store := verify.NewJobStore(cfg.Verification.JobStoreSize)
	runner := verify.NewRunner(orch, store, 1, cfg.Verification.JobTimeout, logging.New(verbose))
	defer runner.Stop()

	id, err := runner.Submit(citations)
	if err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Job submitted: %s\n", id)

	deadline := time.Now().Add(verifyTimeout)
	lastProgress := -1
	for {
		job, ok := runner.Status(id)
		if !ok {
			return nil, fmt.Errorf("job %s disappeared from the store", id)
		}
		if job.Progress != lastProgress {
			lastProgress = job.Progress
			fmt.Fprintf(os.Stderr, "  %3d%% (%d/%d) %s\n",
				job.Progress, job.CitationsProcessed, job.CitationsTotal, job.CurrentMethod)
		}
		if job.Status.Terminal() {
			if job.Status != model.JobCompleted {
				return nil, fmt.Errorf("job %s: %s", job.Status, job.ErrorMessage)
			}
			return job.Results, nil
		}
		if time.Now().After(deadline) {
			runner.Cancel(id)
			return nil, fmt.Errorf("timed out waiting for job %s", id)
		}
		time.Sleep(verifyPollWait)
	}
}

func printRecords(citations []string, results map[string]model.VerificationRecord) {
	fmt.Println()
	for _, c := range citations {
		rec, ok := results[c]
		if !ok {
			continue
		}
		switch {
		case rec.Verified:
			fmt.Printf("✓ %s\n    %s (%s)\n    %s [%s]\n",
				rec.Citation, rec.CanonicalName, rec.CanonicalDate, rec.CanonicalURL, rec.Source)
		case rec.Error != "":
			fmt.Printf("✗ %s\n    verification failed at %s: %s\n", rec.Citation, rec.Source, rec.Error)
		default:
			fmt.Printf("✗ %s\n    not found [%s]\n", rec.Citation, rec.Source)
		}
	}
	fmt.Println()
}
