package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/auditview/internal/disclosure"
	"github.com/roach88/auditview/internal/render"
	"github.com/roach88/auditview/internal/store"
	"github.com/roach88/auditview/internal/view"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	ID         int64
	Transcript string
	Area       string
	Toggles    []string
	SessionID  string
	Strict     bool
}

// RenderOutput is the JSON payload of the render command.
type RenderOutput struct {
	Document *view.Document `json:"document"`
	Problems []Problem      `json:"problems,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render [result.json]",
		Short: "Render an audit result as a requirement tree",
		Long: `Render one audit result as an expandable requirement tree.

The result is read from a file (a bare result node or a stored record with
result/error/area members) or, with --id, from the results database.

Nodes start expanded when they failed and collapsed when they passed. Use
--toggle with a node path (e.g. '$.items[0]') to flip a node; repeat the flag
to flip several.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.ID, "id", 0, "render the stored result with this id (requires --db)")
	cmd.Flags().StringVar(&opts.Transcript, "transcript", "", "transcript JSON file")
	cmd.Flags().StringVar(&opts.Area, "area", "", "area-of-study YAML file")
	cmd.Flags().StringArrayVar(&opts.Toggles, "toggle", nil, "flip the disclosure state of a node path (repeatable)")
	cmd.Flags().StringVar(&opts.SessionID, "session-id", "", "use a fixed session id instead of a generated one")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any subtree could not be rendered")

	return cmd
}

func runRender(rootOpts *RootOptions, opts *RenderOptions, args []string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	log := rootOpts.logger()

	if (opts.ID != 0) == (len(args) == 1) {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "give either a result file or --id", nil)
	}

	session := disclosure.NewSession(nil)
	if opts.SessionID != "" {
		session = disclosure.NewSession(disclosure.FixedGenerator{ID: opts.SessionID})
	}
	session.Toggle(opts.Toggles...)

	var (
		doc      *view.Document
		problems render.Problems
	)
	if opts.ID != 0 {
		st, err := openStore(rootOpts.DB, true)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot open results database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		res, err := st.GetResult(cmd.Context(), opts.ID)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("result %d not found", opts.ID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "cannot read result", err)
		}
		formatter.VerboseLog("Rendering result %d for student %s", res.ID, res.StudentID)

		doc, problems, err = renderStored(cmd.Context(), st, res, session, log)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, "cannot render result", err)
		}
	} else {
		in, err := fileInput(args[0], opts)
		if err != nil {
			code := ErrCodeDecodeFailed
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			return formatter.Fail(ExitCommandError, code, "cannot load input", err)
		}
		formatter.VerboseLog("Rendering %s (%d transcript course(s))", args[0], len(in.Courses))

		doc, problems, err = renderDocument(in, session, log)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, "cannot render result", err)
		}
	}

	for _, p := range problems {
		log.Warn("render problem", "code", p.Code, "path", p.Path, "error", p.Err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(RenderOutput{Document: doc, Problems: problemsJSON(problems)}); err != nil {
			return err
		}
	} else if err := rootOpts.printer().Fprint(formatter.Writer, doc); err != nil {
		return err
	}

	if opts.Strict && len(problems) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d subtree(s) could not be rendered", ErrCodeRenderIssues, len(problems)))
	}
	return nil
}

// fileInput loads the result file plus the optional transcript and area
// files. An --area file overrides an area embedded in the result record.
func fileInput(path string, opts *RenderOptions) (documentInput, error) {
	env, err := loadEnvelope(path)
	if err != nil {
		return documentInput{}, err
	}
	in := documentInput{Result: env.Result, Error: env.Error, Area: env.Area}

	if opts.Transcript != "" {
		courses, err := loadTranscript(opts.Transcript)
		if err != nil {
			return documentInput{}, err
		}
		in.Courses = courses
	}
	if opts.Area != "" {
		area, err := loadArea(opts.Area)
		if err != nil {
			return documentInput{}, err
		}
		in.Area = area
	}
	return in, nil
}

// encodeDocument writes doc as indented JSON.
func encodeDocument(doc *view.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
