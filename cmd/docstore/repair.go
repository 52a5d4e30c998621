package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-docstore"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("one or more documents need repair")

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "check [name...]",
		Short: "Report documents whose primary would be quarantined on load",
		Long: "Check decodes every primary without modifying it. With --repair each broken\n" +
			"document is loaded once, which quarantines it and restores the backup when usable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				listed, err := listDocuments(opts)
				if err != nil {
					return err
				}
				names = listed
			}

			type result struct {
				Name     string `json:"name"`
				State    string `json:"state"`
				Outcome  string `json:"outcome"`
				Repaired bool   `json:"repaired,omitempty"`
				Error    string `json:"error,omitempty"`
			}
			var results []result
			failed := false
			for _, name := range names {
				report, err := inspectDocument(opts, name)
				if err != nil {
					return err
				}
				r := result{
					Name:    name,
					State:   report.Primary.State,
					Outcome: report.loadOutcome(),
					Error:   report.Primary.Error,
				}
				if report.Primary.broken() {
					if repair {
						engine, err := opts.engine(name)
						if err != nil {
							return err
						}
						engine.Load()
						r.Repaired = true
					} else {
						failed = true
					}
				}
				results = append(results, r)
			}

			if opts.json {
				if results == nil {
					results = []result{}
				}
				if err := writeJSON(opts.out, results); err != nil {
					return err
				}
			} else {
				p := opts.printer()
				for _, r := range results {
					line := fmt.Sprintf("%-24s %s", r.Name, p.state(r.State))
					if r.Repaired {
						line += "  repaired: " + r.Outcome
					} else if r.State != stateOK {
						line += "  " + p.muted(r.Outcome)
					}
					p.line("%s", line)
				}
			}
			if failed {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "quarantine broken primaries and recover from backup")
	return cmd
}

func newRestoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace the primary with the backup, consuming the backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(args[0])
			if err != nil {
				return err
			}
			if err := engine.RestoreBackup(); err != nil {
				return err
			}
			opts.printer().line("restored %s from %s", engine.Location().Primary, engine.Location().Backup)
			return nil
		},
	}
}

func newCleanCommand(opts *rootOptions) *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "clean <name>",
		Short: "Remove quarantined copies and a leftover temp file",
		Long: "Clean deletes quarantine files older than --older-than and the temp file left\n" +
			"behind by an interrupted save. Do not run it while the application is writing.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := opts.location(args[0])
			if err != nil {
				return err
			}
			files, err := docstore.ListQuarantine(loc)
			if err != nil {
				return err
			}
			cutoff := time.Now().Add(-olderThan)
			var targets []string
			for _, file := range files {
				if olderThan <= 0 || file.At.Before(cutoff) {
					targets = append(targets, file.Path)
				}
			}
			if _, err := os.Stat(loc.Temp); err == nil {
				targets = append(targets, loc.Temp)
			}

			p := opts.printer()
			var errs []error
			for _, path := range targets {
				if dryRun {
					p.line("would remove %s", path)
					continue
				}
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					errs = append(errs, err)
					continue
				}
				p.line("removed %s", path)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only remove quarantine files older than this")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be removed")
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete the primary, backup and temp files of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(args[0])
			if err != nil {
				return err
			}
			if err := engine.Delete(); err != nil {
				return err
			}
			opts.printer().line("deleted %s", engine.Name())
			return nil
		},
	}
}

func formatSize(n int64) string {
	switch {
	case n < 1024:
		return strconv.FormatInt(n, 10) + " B"
	case n < 1024*1024:
		return strconv.FormatFloat(float64(n)/1024, 'f', 1, 64) + " KiB"
	default:
		return strconv.FormatFloat(float64(n)/(1024*1024), 'f', 1, 64) + " MiB"
	}
}
