package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/auditview/internal/render"
)

// Configuration keys. Each can be set in auditview.yaml, as AUDITVIEW_<KEY>
// (dots become underscores) or, where a flag exists, on the command line.
const (
	KeyDB        = "db"
	KeyFormat    = "format"
	KeyVerbose   = "verbose"
	KeyIndent    = "indent"
	KeyOKGlyph   = "glyphs.ok"
	KeyWarnGlyph = "glyphs.warn"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	DB         string

	// Config is the layered configuration. Nil means defaults only.
	Config *viper.Viper

	// Logger is set up by the root command. Nil discards.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the auditview CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: viper.New()}

	cmd := &cobra.Command{
		Use:   "auditview",
		Short: "auditview - degree audit result viewer",
		Long: `Render degree-audit results as an expandable requirement tree.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (AUDITVIEW_*)
3. Config file (./auditview.yaml or ~/.auditview/auditview.yaml)
4. Defaults`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(opts, cmd); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default: ./auditview.yaml)")
	flags.StringVar(&opts.DB, "db", "", "path to the results database")

	// Bind flags to viper
	_ = opts.Config.BindPFlag(KeyVerbose, flags.Lookup("verbose"))
	_ = opts.Config.BindPFlag(KeyFormat, flags.Lookup("format"))
	_ = opts.Config.BindPFlag(KeyDB, flags.Lookup("db"))

	// Add subcommands
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTranscriptCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))

	return cmd
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyIndent, render.DefaultIndent)
	v.SetDefault(KeyOKGlyph, render.DefaultOKGlyph)
	v.SetDefault(KeyWarnGlyph, render.DefaultWarnGlyph)
}

// initConfig reads the config file and AUDITVIEW_* environment variables,
// then copies the resolved global settings back into opts.
func initConfig(opts *RootOptions, cmd *cobra.Command) error {
	v := opts.Config
	setDefaults(v)

	if opts.ConfigFile != "" {
		// Use config file from the flag
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("auditview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".auditview"))
		}
	}

	v.SetEnvPrefix("AUDITVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	} else if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", v.ConfigFileUsed())
	}

	opts.Format = v.GetString(KeyFormat)
	opts.Verbose = v.GetBool(KeyVerbose)
	opts.DB = v.GetString(KeyDB)
	return nil
}

// newLogger returns a text handler on w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) config() *viper.Viper {
	if o.Config == nil {
		o.Config = viper.New()
	}
	setDefaults(o.Config)
	return o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// printer builds the text printer from the glyph and indent settings.
func (o *RootOptions) printer() render.Printer {
	v := o.config()
	p := render.Printer{
		OKGlyph:   v.GetString(KeyOKGlyph),
		WarnGlyph: v.GetString(KeyWarnGlyph),
		Indent:    v.GetInt(KeyIndent),
	}
	if p.Indent < 0 {
		p.Indent = render.DefaultIndent
	}
	return p
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
