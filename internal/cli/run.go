package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guarzo/swuprice/internal/config"
	"github.com/guarzo/swuprice/internal/metrics"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/guarzo/swuprice/internal/pipeline"
	"github.com/guarzo/swuprice/internal/report"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// job is one fully configured run and where its output goes.
type job struct {
	mode    pipeline.Mode
	out     string
	format  string
	runner  *pipeline.Runner
	metrics *metrics.Registry
}

func newReportCmd(g *globalFlags) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the Rare and Legendary price report",
		Long: `Report prices every Rare and Legendary printing of the set and writes them sorted
by USD market price, most valuable first.

Examples:
  swuprice report
  swuprice report --set-id 7 --set-name "Twilight of the Republic" --currency NZD
  swuprice report --format csv --out ./prices.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := g.newJob(cmd, pipeline.ModeReport, out, format, nil)
			if err != nil {
				return err
			}
			return j.execute(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default ./card-list.json)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "report format: json or csv")
	return cmd
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Write a Square catalog batch-upsert payload",
		Long: `Batch prices every printing of the set and writes one Square catalog item per base
card, with regular and hyperspace variations priced in minor currency units.

Examples:
  swuprice batch --category-id 7RQ2X3BHMQ5FQ4OMHSFKJ3GT
  swuprice batch --corrections ./corrections.toml --out ./square.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := g.newJob(cmd, pipeline.ModeBatch, out, formatJSON, nil)
			if err != nil {
				return err
			}
			return j.execute(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default ./catalog-batch.json)")
	return cmd
}

func (g *globalFlags) newJob(cmd *cobra.Command, mode pipeline.Mode, out, format string, reg *metrics.Registry) (*job, error) {
	format = strings.ToLower(format)
	if format != formatJSON && format != formatCSV {
		return nil, fmt.Errorf("unknown format %q (want json or csv)", format)
	}
	if mode == pipeline.ModeBatch && format != formatJSON {
		return nil, fmt.Errorf("batch output is always json")
	}

	cfg, corrections, err := g.settings(cmd)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = defaultOut(cfg, mode)
	}

	return &job{
		mode:    mode,
		out:     out,
		format:  format,
		runner:  pipeline.NewRunner(pipelineConfig(cfg, corrections), reg),
		metrics: reg,
	}, nil
}

func defaultOut(cfg *config.Config, mode pipeline.Mode) string {
	if mode == pipeline.ModeBatch {
		return cfg.BatchPath
	}
	return cfg.ReportPath
}

// execute runs the pipeline once, writes the output and prints a summary.
func (j *job) execute(ctx context.Context, w io.Writer) error {
	start := time.Now()
	res, err := j.runner.Run(ctx, j.mode)
	if err == nil {
		err = j.write(res)
	}
	if j.metrics != nil {
		j.metrics.ObserveRun(time.Since(start), err == nil)
	}
	if err != nil {
		return err
	}
	printSummary(w, res, j.out)
	return nil
}

func (j *job) write(res *pipeline.Result) error {
	switch {
	case j.mode == pipeline.ModeBatch:
		return report.WriteJSON(j.out, res.Batch)
	case j.format == formatCSV:
		return report.WriteCSV(j.out, report.ToRows(res.Report))
	default:
		return report.WriteJSON(j.out, report.ToRows(res.Report))
	}
}

func printSummary(w io.Writer, res *pipeline.Result, out string) {
	ok := color.New(color.FgGreen).SprintFunc()
	label := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(w, "%s Priced %d cards in %s\n", ok("✓"), len(res.Priced), res.Duration.Round(time.Millisecond))
	switch res.Mode {
	case pipeline.ModeReport:
		fmt.Fprintf(w, "  %s %d rows -> %s\n", label("Report:"), len(res.Report), out)
	case pipeline.ModeBatch:
		fmt.Fprintf(w, "  %s %d objects in %d batch(es) -> %s\n",
			label("Batch:"), res.Batch.ObjectCount(), len(res.Batch.Batches), out)
	}

	if len(res.Warnings) == 0 {
		return
	}
	warn := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, "  %s %d (%s)\n", warn("Warnings:"), len(res.Warnings), warningBreakdown(res.Warnings))
}

// warningBreakdown renders "kind n" pairs sorted by kind.
func warningBreakdown(ws []model.Warning) string {
	counts := map[model.WarningKind]int{}
	for _, w := range ws {
		counts[w.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s %d", k, counts[model.WarningKind(k)])
	}
	return strings.Join(parts, ", ")
}
