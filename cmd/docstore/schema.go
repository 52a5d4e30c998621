package main

import (
	"bytes"
	"encoding/json"

	"github.com/goliatone/go-docstore/pkg/settings"
	"github.com/spf13/cobra"
)

func newSchemaCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [name]",
		Short: "Print the JSON Schema of a settings document",
		Long:  "Without a name, lists the settings documents that carry a schema.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if opts.json {
					return writeJSON(opts.out, settings.Names())
				}
				p := opts.printer()
				for _, name := range settings.Names() {
					p.line("%s", name)
				}
				return nil
			}
			raw, err := settings.Schema(args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return err
			}
			buf.WriteByte('\n')
			_, err = opts.out.Write(buf.Bytes())
			return err
		},
	}
}
