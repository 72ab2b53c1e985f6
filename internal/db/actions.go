package db

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/higdocs/internal/common"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// RunsAction lists index runs, or shows one run with its failures when
// an id (or "latest") is given.
func RunsAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	if c.NArg() > 0 {
		return runDetail(c, env)
	}

	runs, err := env.DB.ListRuns(c.Int("limit"))
	if err != nil {
		return common.Fatal(fmt.Errorf("failed to list runs: %w", err))
	}
	if c.IsSet(common.FlagFormat) {
		return env.Output(c, runs)
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-16s %-10s %-7s %-8s %-10s %-8s %-7s %-8s\n",
		"ID", "Started", "Duration", "Files", "Indexed", "Unchanged", "Removed", "Failed", "Invalid")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range runs {
		duration := "running"
		if r.Finished() {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%-6d %-16s %-10s %-7d %-8d %-10d %-8d %-7s %-8d\n",
			r.RunID,
			humanize.Time(r.StartedAt),
			duration,
			r.FileCount,
			r.IndexedCount,
			r.UnchangedCount,
			r.RemovedCount,
			failedCell(r.FailedCount),
			r.InvalidCount,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'higdocs runs <id>' to see failures\n")
	return nil
}

func failedCell(n int) string {
	s := fmt.Sprintf("%-7d", n)
	if n > 0 {
		return color.RedString("%s", s)
	}
	return s
}

func runDetail(c *cli.Context, env *common.Env) error {
	runID, err := GetRunIDOrLatest(c, env.DB)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitPartial)
	}

	run, err := env.DB.GetRun(runID)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitPartial)
	}
	if c.IsSet(common.FlagFormat) {
		return env.Output(c, run)
	}
	PrintRun(c.App.Writer, run)
	return nil
}

// PrintRun writes a human readable run report.
func PrintRun(w io.Writer, run *dbpkg.Run) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("Run %d", run.RunID)))
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Root:      %s\n", run.Root)
	fmt.Fprintf(w, "Started:   %s (%s)\n", run.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
	if run.Finished() {
		fmt.Fprintf(w, "Duration:  %s\n", run.Duration().Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Duration:  %s\n", color.YellowString("not finished"))
	}
	fmt.Fprintf(w, "Files:     %d total (%d indexed, %d unchanged, %d removed)\n",
		run.FileCount, run.IndexedCount, run.UnchangedCount, run.RemovedCount)
	fmt.Fprintf(w, "Problems:  %d failed, %d invalid\n", run.FailedCount, run.InvalidCount)

	if len(run.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailures (%d):\n", len(run.Failures))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, f := range run.Failures {
		fmt.Fprintf(w, "%2d. %s\n", i+1, f.Path)
		fmt.Fprintf(w, "    %s %s\n", color.RedString("["+f.ErrorType+"]"), f.Message)
	}
}

// ListAction prints indexed documents as a table.
func ListAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	docs, total, err := env.DB.ListDocuments(dbpkg.ListOptions{
		Platform:  c.String("platform"),
		Category:  c.String("category"),
		ValidOnly: c.Bool("valid-only"),
		Limit:     c.Int("limit"),
		Offset:    c.Int("offset"),
	})
	if err != nil {
		return common.Fatal(err)
	}
	if c.IsSet(common.FlagFormat) {
		return env.Output(c, map[string]any{"documents": docs, "total": total})
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%-5s %-32s %-14s %-10s %-8s %-7s %s\n", "ID", "Slug", "Category", "Platform", "Quality", "Words", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, d := range docs {
		slug := d.Slug
		if !d.Valid {
			slug = color.RedString("%-32s", slug)
		} else {
			slug = fmt.Sprintf("%-32s", slug)
		}
		fmt.Fprintf(w, "%-5d %s %-14s %-10s %-8s %-7s %s\n",
			d.DocID, slug, d.Category, d.Platform, d.QualityBand, humanize.Comma(int64(d.WordCount)), d.Title)
	}
	fmt.Fprintf(w, "\nShowing %d of %d documents\n", len(docs), total)
	return nil
}
