package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/store"
	"github.com/roach88/auditview/internal/transcript"
)

// TranscriptRow is one course line of the transcript listing.
type TranscriptRow struct {
	CLBID   string `json:"clbid"`
	Course  string `json:"course"`
	Name    string `json:"name"`
	Credits string `json:"credits"`
	Grade   string `json:"grade"`
	Term    string `json:"term"`
	GEReqs  string `json:"gereqs"`
}

// NewTranscriptCommand creates the transcript command.
func NewTranscriptCommand(rootOpts *RootOptions) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "transcript [transcript.json]",
		Short: "List a student's courses sorted by course code",
		Long: `List transcript courses sorted by course code, with credits, grade,
term and general-education requirements.

Reads a transcript file, or with --student the transcript stored in --db.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(rootOpts, student, args, cmd)
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "read the stored transcript of this student (requires --db)")

	return cmd
}

func runTranscript(opts *RootOptions, student string, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if (student != "") == (len(args) == 1) {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "give either a transcript file or --student", nil)
	}

	var courses []audit.Course
	if student != "" {
		st, err := openStore(opts.DB, true)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot open results database", err)
		}
		defer st.Close()

		tr, err := st.GetTranscript(cmd.Context(), student)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no transcript for student %s", student), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot read transcript", err)
		}
		courses = tr.Courses
	} else {
		c, err := loadTranscript(args[0])
		if err != nil {
			code := ErrCodeDecodeFailed
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			return formatter.Fail(ExitCommandError, code, "cannot load transcript", err)
		}
		courses = c
	}

	rows := TranscriptRows(courses)
	if formatter.Format == "json" {
		return formatter.Success(rows)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Course\tName\tCredits\tGrade\tTerm\tGE Reqs")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Course, r.Name, r.Credits, r.Grade, r.Term, r.GEReqs)
	}
	return tw.Flush()
}

// TranscriptRows formats courses for the listing, sorted by course code.
func TranscriptRows(courses []audit.Course) []TranscriptRow {
	sorted := transcript.Sorted(courses)
	rows := make([]TranscriptRow, len(sorted))
	for i, c := range sorted {
		rows[i] = TranscriptRow{
			CLBID:   string(c.CLBID),
			Course:  c.Course,
			Name:    c.Name,
			Credits: strconv.FormatFloat(c.Credits, 'f', 2, 64),
			Grade:   c.Grade,
			Term:    transcript.TermLabel(c),
			GEReqs:  strings.Join(c.GEReqs, " + "),
		}
	}
	return rows
}
