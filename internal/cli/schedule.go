package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/guarzo/swuprice/internal/metrics"
	"github.com/guarzo/swuprice/internal/pipeline"
)

type scheduleFlags struct {
	spec        string
	mode        string
	out         string
	format      string
	metricsAddr string
	now         bool
}

func newScheduleCmd(g *globalFlags) *cobra.Command {
	f := &scheduleFlags{}
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Re-run report or batch on a cron schedule",
		Long: `Schedule keeps running and repeats a report or batch run on a cron schedule. Each run
starts from scratch: the set is listed again and the exchange rate is fetched again.
A run that is still going when the next one is due makes that one skip.

Examples:
  swuprice schedule --cron "0 6 * * *"
  swuprice schedule --cron "@every 6h" --mode batch --metrics-addr :9090 --now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return g.schedule(ctx, cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.spec, "cron", "", "cron spec, five fields or a descriptor like @daily (required)")
	cmd.Flags().StringVar(&f.mode, "mode", string(pipeline.ModeReport), "what to run: report or batch")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default depends on mode)")
	cmd.Flags().StringVar(&f.format, "format", formatJSON, "report format: json or csv")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&f.now, "now", false, "run once immediately before waiting for the schedule")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

func (g *globalFlags) schedule(ctx context.Context, cmd *cobra.Command, f *scheduleFlags) error {
	mode := pipeline.Mode(f.mode)
	if mode != pipeline.ModeReport && mode != pipeline.ModeBatch {
		return fmt.Errorf("unknown mode %q (want report or batch)", f.mode)
	}
	format := f.format
	if mode == pipeline.ModeBatch {
		format = formatJSON
	}

	reg := metrics.NewRegistry()
	j, err := g.newJob(cmd, mode, f.out, format, reg)
	if err != nil {
		return err
	}

	runOnce := func() {
		if err := j.execute(ctx, cmd.OutOrStdout()); err != nil {
			log.Printf("Schedule: %s run failed: %v", mode, err)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(f.spec, runOnce); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", f.spec, err)
	}

	errCh := make(chan error, 1)
	var srv *http.Server
	if f.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		srv = &http.Server{Addr: f.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("Schedule: metrics listening on %s/metrics", f.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if f.now {
		runOnce()
	}
	c.Start()
	log.Printf("Schedule: %s runs on %q, output %s", mode, f.spec, j.out)

	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("Schedule: shutting down")
	case runErr = <-errCh:
		log.Printf("Schedule: metrics server error: %v", runErr)
	}

	<-c.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Schedule: metrics shutdown error: %v", err)
		}
	}
	return runErr
}
