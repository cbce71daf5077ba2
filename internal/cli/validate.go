package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/schema"
)

// ValidationResult holds validation results for one file.
type ValidationResult struct {
	File   string                   `json:"file"`
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <result.json>...",
		Short: "Check result documents against the node schema",
		Long: `Check audit result documents against the schema of each node variant.

Rendering is lenient: unknown or malformed nodes are shown in place. Validate
is the strict counterpart and reports every structural problem with its node
path and line.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	validator, err := schema.New()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "cannot compile schema", err)
	}

	results := make([]ValidationResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			code := ErrCodeGeneric
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			return formatter.Fail(ExitCommandError, code, fmt.Sprintf("%s not found", path), err)
		}

		formatter.VerboseLog("Validating %s", path)
		errs := ValidateDocument(validator, path, data)
		if len(errs) > 0 {
			failed++
		}
		results = append(results, ValidationResult{File: path, Valid: len(errs) == 0, Errors: errs})
	}

	if failed > 0 {
		return outputValidationErrors(formatter, results, failed)
	}
	return outputValidateSuccess(formatter, results)
}

// ValidateDocument validates one result document, bare or wrapped in a
// stored record. Schema findings come first; problems only the decoder
// notices are appended for node paths the schema did not already flag.
func ValidateDocument(v *schema.Validator, filename string, data []byte) []schema.ValidationError {
	raw := data
	if env, err := decodeEnvelope(data); err == nil {
		if len(env.Result) == 0 {
			return []schema.ValidationError{{
				Field:   "result",
				Message: "document has no result",
				Code:    schema.ErrInvalidDocument,
			}}
		}
		raw = env.Result
	}

	errs := v.Validate(filename, raw)
	if len(errs) > 0 && errs[0].Code == schema.ErrInvalidDocument {
		return errs
	}

	tree, err := audit.ParseResult(raw)
	if err != nil {
		return append(errs, schema.ValidationError{
			Field: audit.RootPath.String(), Message: err.Error(), Code: schema.ErrInvalidDocument,
		})
	}

	flagged := make(map[string]bool, len(errs))
	for _, e := range errs {
		flagged[e.Field] = true
	}
	for _, p := range tree.Problems {
		if flagged[p.Path.String()] {
			continue
		}
		code := schema.ErrUnknownNodeType
		if p.Err != nil {
			code = schema.ErrNodeMismatch
		}
		errs = append(errs, schema.ValidationError{Field: p.Path.String(), Message: p.Error(), Code: code})
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, results []ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "✓ %s valid\n", r.File)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, results []ValidationResult, failed int) error {
	var first schema.ValidationError
	total := 0
	for _, r := range results {
		if total == 0 && len(r.Errors) > 0 {
			first = r.Errors[0]
		}
		total += len(r.Errors)
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   results,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", total))
	}

	// Text format
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s valid\n", r.File)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s: validation failed\n\n", r.File)
		for _, err := range r.Errors {
			if err.Line > 0 {
				fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure,
		fmt.Sprintf("validation failed with %d error(s) in %d file(s)", total, failed))
}
