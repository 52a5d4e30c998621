package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/goliatone/go-docstore"
	"github.com/goliatone/go-docstore/pkg/settings"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	dir     string
	yaml    bool
	json    bool
	verbose bool

	out    io.Writer
	errOut io.Writer
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}
	cmd := &cobra.Command{
		Use:           "docstore",
		Short:         "Inspect and repair document store files",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.dir != "" {
				return nil
			}
			dir, err := docstore.SettingsDir()
			if err != nil {
				return err
			}
			opts.dir = dir
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", "", "settings directory (default $"+docstore.SettingsDirEnv+" or the user config dir)")
	flags.BoolVar(&opts.yaml, "yaml", false, "documents are YAML encoded")
	flags.BoolVar(&opts.json, "json", false, "print machine readable JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log store operations to stderr")

	cmd.AddCommand(
		newListCommand(opts),
		newInspectCommand(opts),
		newQuarantineCommand(opts),
		newCheckCommand(opts),
		newRestoreCommand(opts),
		newCleanCommand(opts),
		newDeleteCommand(opts),
		newSchemaCommand(opts),
	)
	return cmd
}

func (o *rootOptions) codec() docstore.Codec {
	if o.yaml {
		return docstore.YAMLCodec{Indent: 2}
	}
	return docstore.DefaultCodec
}

func (o *rootOptions) location(name string) (docstore.Location, error) {
	if err := docstore.ValidateName(name); err != nil {
		return docstore.Location{}, err
	}
	return docstore.NewLocation(filepath.Join(o.dir, name+o.codec().Extension())), nil
}

func (o *rootOptions) logger() docstore.Logger {
	if !o.verbose {
		return docstore.LoggerFunc(func(docstore.LogEvent) {})
	}
	handler := slog.NewTextHandler(o.errOut, &slog.HandlerOptions{Level: slog.LevelDebug})
	return docstore.SlogLogger(slog.New(handler))
}

// engine opens name as an untyped document. Known settings documents are
// also checked against their generated schema.
func (o *rootOptions) engine(name string) (*docstore.Engine[any], error) {
	loc, err := o.location(name)
	if err != nil {
		return nil, err
	}
	engineOpts := []docstore.Option[any]{
		docstore.WithCodec[any](o.codec()),
		docstore.WithLogger[any](o.logger()),
	}
	validator, err := o.validator(name)
	if err != nil {
		return nil, err
	}
	if validator != nil {
		engineOpts = append(engineOpts, docstore.WithValidators[any](validator))
	}
	return docstore.New[any](loc.Primary, engineOpts...)
}

// validator returns the schema validator of a known settings document, or
// nil for any other name.
func (o *rootOptions) validator(name string) (docstore.Validator, error) {
	if !slices.Contains(settings.Names(), name) {
		return nil, nil
	}
	raw, err := settings.Schema(name)
	if err != nil {
		return nil, err
	}
	return docstore.SchemaValidator(raw)
}

func (o *rootOptions) printer() *printer {
	return newPrinter(o.out)
}
