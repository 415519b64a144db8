package cli

import (
	"fmt"
	"io"
	"strings"

	"esmigrate/internal/data/journal"
	"esmigrate/internal/engine/cycles"
	"esmigrate/internal/engine/model"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConvertCommand(opts *rootOptions) *cobra.Command {
	var (
		dryRun bool
		diff   bool
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Rewrite the library to ES6 modules in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, opts, dryRun)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			report, err := rt.app.Convert(ctx)
			out := cmd.OutOrStdout()
			if report != nil {
				if dryRun && diff {
					for _, change := range rt.app.Changes() {
						fmt.Fprintln(out, renderDiff(change))
					}
				}
				fmt.Fprintln(out, renderSummary(report))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "convert in memory and report the changes without writing")
	cmd.Flags().BoolVar(&diff, "diff", true, "print line diffs of a dry run")
	return cmd
}

func newScanCommand(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the namespace model of the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, opts, true)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			m, err := rt.app.Scan(ctx)
			if err != nil {
				return err
			}
			return writeModel(cmd.OutOrStdout(), m, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	return cmd
}

func writeModel(w io.Writer, m *model.Model, format string) error {
	switch strings.ToLower(format) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode model: %w", err)
		}
		return enc.Close()
	case "text", "":
		for _, f := range m.Files {
			style := "provide"
			if f.IsModuleFile() {
				style = "module"
			}
			namespaces := make([]string, 0, len(f.Declarations))
			for _, d := range f.Declarations {
				namespaces = append(namespaces, d.Namespace)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d requires\n", f.Path, style, strings.Join(namespaces, ","), len(f.Requires))
		}
		fmt.Fprintf(w, "%s files, %s namespaces\n", humanize.Comma(int64(len(m.Files))), humanize.Comma(int64(m.Registry.Len())))
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected text or yaml", format)
	}
}

func newMergeCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the known cyclic file groups of the goog directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, opts, dryRun)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			results, err := rt.app.Merge(ctx)
			writeMergeResults(cmd.OutOrStdout(), results)
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the merges without writing")
	return cmd
}

func writeMergeResults(w io.Writer, results []cycles.MergeResult) {
	for _, res := range results {
		if res.Skipped {
			fmt.Fprintf(w, "%s\t%s\n", res.Target, warnStyle.Render("skipped, no member present"))
			continue
		}
		line := fmt.Sprintf("%s\t%d merged, %d requires stripped", res.Target, len(res.Merged), res.StrippedRequires)
		if len(res.Missing) > 0 {
			line += ", missing " + strings.Join(res.Missing, ",")
		}
		fmt.Fprintln(w, line)
	}
}

func newJournalCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal [run-id]",
		Short: "List recorded runs, or the files of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store, err := journal.Open(paths.JournalPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				files, err := store.FileResults(ctx, args[0])
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintf(out, "%s\t%s\t%s\t%d exports\t%d imports\t%s\n",
						f.Path, f.Style, f.Status, f.Exports, f.Imports, f.Duration)
				}
				return nil
			}

			runs, err := store.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				mode := "write"
				if r.DryRun {
					mode = "dry-run"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%d converted\t%d skipped\n",
					r.ID, humanize.Time(r.StartedAt), mode, r.Status, r.Converted, r.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}
