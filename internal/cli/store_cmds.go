package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	ID         int64
	Student    string
	Catalog    string
	Transcript string
	Area       string
}

// ImportOutput is the JSON payload of the import command.
type ImportOutput struct {
	ID             int64  `json:"id"`
	StudentID      string `json:"student_id"`
	ResultHash     string `json:"result_hash,omitempty"`
	TranscriptHash string `json:"transcript_hash,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <result.json>",
		Short: "Store an audit result (and transcript) in the results database",
		Long: `Store one audit result in --db. The file may be a bare result node or a
record with student_id, catalog, area, result and error members; flags
override the record's values.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.ID, "id", 0, "replace the result with this id instead of adding one")
	cmd.Flags().StringVar(&opts.Student, "student", "", "student id")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog year label")
	cmd.Flags().StringVar(&opts.Transcript, "transcript", "", "transcript JSON file to store for the student")
	cmd.Flags().StringVar(&opts.Area, "area", "", "area-of-study YAML file")

	return cmd
}

func runImport(rootOpts *RootOptions, opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	ctx := cmd.Context()

	env, err := loadEnvelope(path)
	if err != nil {
		code := ErrCodeDecodeFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return formatter.Fail(ExitCommandError, code, "cannot load result", err)
	}

	res := store.Result{
		ID:        opts.ID,
		StudentID: env.StudentID,
		Catalog:   env.Catalog,
		Area:      env.Area,
		Result:    env.Result,
		Error:     env.Error,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if opts.Student != "" {
		res.StudentID = opts.Student
	}
	if opts.Catalog != "" {
		res.Catalog = opts.Catalog
	}
	if res.StudentID == "" {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "student id is required (--student or student_id)", nil)
	}
	if opts.Area != "" {
		area, err := loadArea(opts.Area)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, "cannot load area", err)
		}
		res.Area = area
	}
	if res.Area != nil {
		res.AreaCode = res.Area.Code
	}
	if len(res.Result) > 0 {
		tree, err := audit.ParseResult(res.Result)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, "cannot parse result", err)
		}
		meta := tree.Root.Meta()
		res.OK, res.Rank = meta.OK, float64(meta.Rank)
	}

	var courses []audit.Course
	if opts.Transcript != "" {
		courses, err = loadTranscript(opts.Transcript)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, "cannot load transcript", err)
		}
	}

	st, err := openStore(rootOpts.DB, false)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot open results database", err)
	}
	defer st.Close()

	out := ImportOutput{StudentID: res.StudentID}
	if opts.Transcript != "" {
		out.TranscriptHash, err = st.PutTranscript(ctx, res.StudentID, courses)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot store transcript", err)
		}
	}
	out.ID, err = st.PutResult(ctx, res)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot store result", err)
	}
	if stored, err := st.GetResult(ctx, out.ID); err == nil {
		out.ResultHash = stored.ResultHash
	}

	rootOpts.logger().Debug("imported result", "id", out.ID, "student", out.StudentID, "hash", out.ResultHash)
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	return formatter.Success(fmt.Sprintf("imported result %d for student %s", out.ID, out.StudentID))
}

// ListRow is one line of the list command.
type ListRow struct {
	ID        int64   `json:"id"`
	StudentID string  `json:"student_id"`
	Area      string  `json:"area"`
	Catalog   string  `json:"catalog"`
	Status    string  `json:"status"`
	Rank      float64 `json:"rank"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	filter := &store.Filter{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results",
		Long: `List stored results ordered by id. Filters combine with AND; --status is
one of Complete, Incomplete, Pending or Error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, *filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter.StudentID, "student", "", "only this student's results")
	cmd.Flags().StringVar(&filter.AreaCode, "area", "", "only results for this area code")
	cmd.Flags().StringVar(&filter.Catalog, "catalog", "", "only results for this catalog")
	cmd.Flags().StringVar(&filter.Status, "status", "", "only results with this status")

	return cmd
}

func runList(opts *RootOptions, filter store.Filter, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pred, err := filter.Predicate()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	st, err := openStore(opts.DB, true)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot open results database", err)
	}
	defer st.Close()

	results, err := st.FindResults(cmd.Context(), pred)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot list results", err)
	}

	rows := make([]ListRow, len(results))
	for i, r := range results {
		rows[i] = ListRow{
			ID:        r.ID,
			StudentID: r.StudentID,
			Area:      r.AreaCode,
			Catalog:   r.Catalog,
			Status:    store.StatusOf(r),
			Rank:      r.Rank,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(rows)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tStudent\tArea\tCatalog\tStatus\tRank")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StudentID, r.Area, r.Catalog, r.Status, strconv.FormatFloat(r.Rank, 'f', -1, 64))
	}
	return tw.Flush()
}
