package main

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-docstore"
	"github.com/spf13/cobra"
)

// documentReport is the full on-disk picture of one document.
type documentReport struct {
	Name       string                    `json:"name"`
	Primary    fileStatus                `json:"primary"`
	Backup     fileStatus                `json:"backup"`
	Temp       fileStatus                `json:"temp"`
	Quarantine []docstore.QuarantineFile `json:"quarantine,omitempty"`
}

// loadOutcome predicts what Load would do with the files as they are.
func (r documentReport) loadOutcome() string {
	switch {
	case r.Primary.usable():
		return "load primary"
	case r.Backup.usable():
		return "restore backup"
	case r.Primary.broken():
		return "quarantine and use defaults"
	default:
		return "use defaults"
	}
}

func inspectDocument(opts *rootOptions, name string) (documentReport, error) {
	loc, err := opts.location(name)
	if err != nil {
		return documentReport{}, err
	}
	quarantine, err := docstore.ListQuarantine(loc)
	if err != nil {
		return documentReport{}, err
	}
	validator, err := opts.validator(name)
	if err != nil {
		return documentReport{}, err
	}
	codec := opts.codec()
	return documentReport{
		Name:       name,
		Primary:    statFile(loc.Primary, codec, validator),
		Backup:     statFile(loc.Backup, codec, validator),
		Temp:       statFile(loc.Temp, codec, validator),
		Quarantine: quarantine,
	}, nil
}

// listDocuments returns the names of documents in dir that have a primary,
// a backup or quarantine files.
func listDocuments(opts *rootOptions) ([]string, error) {
	entries, err := os.ReadDir(opts.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ext := opts.codec().Extension()
	seen := map[string]struct{}{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		name = strings.TrimSuffix(name, docstore.TempSuffix)
		name = strings.TrimSuffix(name, docstore.BackupSuffix)
		if filepath.Ext(name) != ext {
			continue
		}
		if stem, _, ok := docstore.ParseQuarantineName(name); ok {
			seen[stem] = struct{}{}
			continue
		}
		seen[strings.TrimSuffix(name, ext)] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents in the settings directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := listDocuments(opts)
			if err != nil {
				return err
			}
			reports := make([]documentReport, 0, len(names))
			for _, name := range names {
				report, err := inspectDocument(opts, name)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}
			if opts.json {
				return writeJSON(opts.out, reports)
			}
			p := opts.printer()
			p.title("%s", opts.dir)
			for _, report := range reports {
				p.line("  %-24s %s  %s", report.Name, p.state(report.Primary.State),
					p.muted(quarantineSummary(len(report.Quarantine))))
			}
			return nil
		},
	}
}

func newInspectCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show the primary, backup, temp and quarantine files of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := inspectDocument(opts, args[0])
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(opts.out, report)
			}
			p := opts.printer()
			p.title("%s", report.Name)
			for _, row := range []struct {
				label  string
				status fileStatus
			}{
				{"primary", report.Primary},
				{"backup", report.Backup},
				{"temp", report.Temp},
			} {
				p.line("  %-8s %-10s %s", row.label, p.state(row.status.State), p.muted(describe(row.status)))
				if row.status.Error != "" {
					p.line("           %s", row.status.Error)
				}
			}
			p.line("  %-8s %s", "load", report.loadOutcome())
			p.line("  %-8s %s", "quarantine", quarantineSummary(len(report.Quarantine)))
			return nil
		},
	}
}

func newQuarantineCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quarantine <name>",
		Short: "List preserved corrupt copies of a document, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := opts.location(args[0])
			if err != nil {
				return err
			}
			files, err := docstore.ListQuarantine(loc)
			if err != nil {
				return err
			}
			if opts.json {
				if files == nil {
					files = []docstore.QuarantineFile{}
				}
				return writeJSON(opts.out, files)
			}
			p := opts.printer()
			for _, file := range files {
				p.line("%s  %8d  %s", file.At.Format(time.RFC3339Nano), file.Size, file.Path)
			}
			return nil
		},
	}
}

func describe(status fileStatus) string {
	if status.State == stateMissing {
		return status.Path
	}
	return status.Path + " (" + formatSize(status.Size) + ", " + status.ModTime.Format(time.DateTime) + ")"
}

func quarantineSummary(n int) string {
	switch n {
	case 0:
		return "no quarantined copies"
	case 1:
		return "1 quarantined copy"
	default:
		return strconv.Itoa(n) + " quarantined copies"
	}
}
