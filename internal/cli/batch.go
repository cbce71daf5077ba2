package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/auditview/internal/disclosure"
	"github.com/roach88/auditview/internal/store"
)

// DefaultBatchJobs bounds how many results render at once.
const DefaultBatchJobs = 4

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	Out  string
	Jobs int
}

// BatchItem records one rendered result.
type BatchItem struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Problems int    `json:"problems"`
}

// BatchSummary is the JSON payload of the batch command.
type BatchSummary struct {
	RunID    string      `json:"run_id"`
	Out      string      `json:"out"`
	Rendered int         `json:"rendered"`
	Problems int         `json:"problems"`
	Items    []BatchItem `json:"items"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render every stored result into a directory",
		Long: `Render every result in --db into <out>/<id>.txt (or <id>.json with
--format json). Results render concurrently, at most --jobs at a time; each
result is rendered in its initial disclosure state.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory (required)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", DefaultBatchJobs, "maximum concurrent renders")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runBatch(rootOpts *RootOptions, opts *BatchOptions, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	st, err := openStore(rootOpts.DB, true)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot open results database", err)
	}
	defer st.Close()

	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "cannot create output directory", err)
	}

	summary, err := RenderAll(cmd.Context(), st, rootOpts, opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "batch render failed", err)
	}
	if summary.Rendered == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNoResults, "no results stored", nil)
	}

	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   summary,
			RunID:  summary.RunID,
		})
	}
	return formatter.Success(fmt.Sprintf("rendered %d result(s) into %s (run %s, %d problem(s))",
		summary.Rendered, summary.Out, summary.RunID, summary.Problems))
}

// RenderAll renders every stored result into opts.Out. Renders run
// concurrently up to opts.Jobs; the first failure cancels the rest.
func RenderAll(ctx context.Context, st *store.Store, rootOpts *RootOptions, opts *BatchOptions) (*BatchSummary, error) {
	results, err := st.ListResults(ctx)
	if err != nil {
		return nil, err
	}

	runID := uuid.Must(uuid.NewV7()).String()
	log := rootOpts.logger().With("run", runID)
	printer := rootOpts.printer()
	asJSON := rootOpts.Format == "json"

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	items := make([]BatchItem, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, res := range results {
		i, res := i, res
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			doc, problems, err := renderStored(gctx, st, res, disclosure.NewSession(nil), log)
			if err != nil {
				return fmt.Errorf("result %d: %w", res.ID, err)
			}

			name := strconv.FormatInt(res.ID, 10) + ".txt"
			var data []byte
			if asJSON {
				name = strconv.FormatInt(res.ID, 10) + ".json"
				if data, err = encodeDocument(doc); err != nil {
					return fmt.Errorf("result %d: %w", res.ID, err)
				}
			} else {
				data = []byte(printer.FormatDocument(doc))
			}

			path := filepath.Join(opts.Out, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("result %d: %w", res.ID, err)
			}
			log.Debug("rendered result", "id", res.ID, "path", path, "problems", len(problems))
			items[i] = BatchItem{ID: res.ID, Path: path, Problems: len(problems)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &BatchSummary{RunID: runID, Out: opts.Out, Rendered: len(items), Items: items}
	for _, it := range items {
		summary.Problems += it.Problems
	}
	log.Info("batch complete", "rendered", summary.Rendered, "problems", summary.Problems)
	return summary, nil
}
