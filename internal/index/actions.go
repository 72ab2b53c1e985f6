package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/higdocs/internal/common"
	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/corpus"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/frontmatter"
	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/loader"
	"github.com/dtnitsch/higdocs/pkg/logging"
	"github.com/dtnitsch/higdocs/pkg/manifest"
	"github.com/dtnitsch/higdocs/pkg/storage"
	"github.com/dtnitsch/higdocs/pkg/validate"
)

// progress returns a loader callback that drives a progress bar on stderr,
// or nil when quiet.
func progress(c *cli.Context, description string) func(done, total int) {
	if c.Bool(common.FlagQuiet) {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}

// IndexResult is printed by the index command.
type IndexResult struct {
	Root      string          `json:"root" yaml:"root"`
	RunID     int64           `json:"run_id" yaml:"run_id"`
	Files     int             `json:"files" yaml:"files"`
	Indexed   int             `json:"indexed" yaml:"indexed"`
	Unchanged int             `json:"unchanged" yaml:"unchanged"`
	Removed   int             `json:"removed" yaml:"removed"`
	Failed    int             `json:"failed" yaml:"failed"`
	Invalid   int             `json:"invalid" yaml:"invalid"`
	Duration  string          `json:"duration" yaml:"duration"`
	Failures  []indexer.Entry `json:"failures,omitempty" yaml:"failures,omitempty"`
	Manifest  string          `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// IndexAction loads the content tree into the index.
func IndexAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	root := env.Config.ContentDir
	if _, err := os.Stat(root); err != nil {
		return common.Fatal(fmt.Errorf("content directory %s: %w", root, err))
	}

	ix := indexer.New(env.DB, root, loader.Options{
		Workers:      env.Config.Workers,
		Logger:       env.Logger,
		SkipLanguage: c.Bool("skip-language"),
		OnProgress:   progress(c, "indexing"),
	})

	summary, err := ix.Run(c.Context)
	if err != nil {
		return common.Fatal(err)
	}

	result := IndexResult{
		Root:      root,
		Indexed:   summary.Indexed,
		Unchanged: summary.Unchanged,
		Removed:   summary.Removed,
		Failed:    summary.Failed,
		Invalid:   summary.Invalid,
		Failures:  summary.Failures(),
	}
	if run := summary.Run; run != nil {
		result.RunID = run.RunID
		result.Files = run.FileCount
		result.Duration = run.Duration().Round(time.Millisecond).String()
	}

	if name := c.String("manifest"); name != "" {
		m := manifest.Generate(summary, root, storage.New(root))
		path, err := manifest.Save(m, storage.New(""), name)
		if err != nil {
			return common.Fatal(err)
		}
		result.Manifest = path
	}

	if err := env.Output(c, result); err != nil {
		return err
	}
	printIndexLine(result)

	if result.Failed > 0 || result.Invalid > 0 {
		return cli.Exit("", common.ExitPartial)
	}
	return nil
}

func printIndexLine(r IndexResult) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(os.Stderr, "%s indexed, %d unchanged, %d removed, %s failed, %s invalid (%s files in %s)\n",
		green(r.Indexed), r.Unchanged, r.Removed, red(r.Failed), yellow(r.Invalid),
		humanize.Comma(int64(r.Files)), r.Duration)
}

// FileReport is the validation outcome for one file.
type FileReport struct {
	Path      string         `json:"path" yaml:"path"`
	ID        string         `json:"id,omitempty" yaml:"id,omitempty"`
	ErrorType string         `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Message   string         `json:"message,omitempty" yaml:"message,omitempty"`
	Issues    []models.Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// ValidateReport is printed by the validate command.
type ValidateReport struct {
	Root     string       `json:"root" yaml:"root"`
	Files    int          `json:"files" yaml:"files"`
	Valid    int          `json:"valid" yaml:"valid"`
	Invalid  int          `json:"invalid" yaml:"invalid"`
	Failed   int          `json:"failed" yaml:"failed"`
	Errors   int          `json:"errors" yaml:"errors"`
	Warnings int          `json:"warnings" yaml:"warnings"`
	Reports  []FileReport `json:"reports,omitempty" yaml:"reports,omitempty"`
}

// ValidateAction checks every file in the content tree without touching
// the index.
func ValidateAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.Fatal(err)
	}
	env := &common.Env{Config: cfg, Logger: logging.Configure(cfg.Log)}

	result, err := loader.Load(c.Context, cfg.ContentDir, loader.Options{
		Workers:      cfg.Workers,
		Logger:       env.Logger,
		SkipLanguage: true,
		OnProgress:   progress(c, "validating"),
	})
	if err != nil {
		return common.Fatal(err)
	}

	report := BuildReport(result, c.Bool("errors-only"))
	if err := env.Output(c, report); err != nil {
		return err
	}

	if report.Invalid > 0 || report.Failed > 0 {
		color.New(color.FgRed).Fprintf(os.Stderr, "%d invalid, %d failed of %d files\n", report.Invalid, report.Failed, report.Files)
		return cli.Exit("", common.ExitPartial)
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "%d files valid (%d warnings)\n", report.Valid, report.Warnings)
	return nil
}

// BuildReport summarizes a load. With errorsOnly, warnings are dropped
// from the per-file reports.
func BuildReport(result *loader.Result, errorsOnly bool) ValidateReport {
	report := ValidateReport{Root: result.Root, Files: len(result.Files), Failed: len(result.Failures)}

	for _, f := range result.Failures {
		report.Reports = append(report.Reports, FileReport{Path: f.Path, ErrorType: f.ErrorType, Message: f.Message})
	}

	for _, doc := range result.Documents {
		errs, warns := validate.Count(doc.Issues)
		report.Errors += errs
		report.Warnings += warns
		if doc.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}

		var issues []models.Issue
		for _, is := range doc.Issues {
			if errorsOnly && is.Severity != models.SeverityError {
				continue
			}
			issues = append(issues, is)
		}
		if len(issues) > 0 {
			report.Reports = append(report.Reports, FileReport{Path: doc.Path, ID: doc.Slug(), Issues: issues})
		}
	}
	return report
}

// ExportResult is printed by the export command.
type ExportResult struct {
	Out         string `json:"out" yaml:"out"`
	Documents   int    `json:"documents" yaml:"documents"`
	Overwritten int    `json:"overwritten" yaml:"overwritten"`
	Bytes       string `json:"bytes" yaml:"bytes"`
}

// ExportAction re-renders every indexed document as a normalized corpus
// file below --out, keeping the original relative paths.
func ExportAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	out := c.String("out")
	s := storage.New(out)
	if err := s.EnsureDir(""); err != nil {
		return common.Fatal(err)
	}

	docs, _, err := env.DB.ListDocuments(dbpkg.ListOptions{ValidOnly: c.Bool("valid-only")})
	if err != nil {
		return common.Fatal(err)
	}

	result := ExportResult{Out: out, Documents: len(docs)}
	var total uint64
	for _, summary := range docs {
		doc, err := env.DB.GetDocument(summary.Slug)
		if err != nil {
			return common.Fatal(err)
		}
		data, err := frontmatter.Render(&frontmatter.Parsed{
			FrontMatter: doc.FrontMatter,
			Body:        doc.Body,
			Attribution: doc.Attribution,
		})
		if err != nil {
			return common.Fatal(fmt.Errorf("render %s: %w", doc.Path, err))
		}
		if s.HasFile(doc.Path) {
			result.Overwritten++
		}
		if err := s.SaveFile(doc.Path, data); err != nil {
			return common.Fatal(err)
		}
		total += uint64(len(data))

		if c.Bool("metadata") {
			name := doc.Path[:len(doc.Path)-len(filepath.Ext(doc.Path))] + ".meta.yaml"
			if err := corpus.WriteMetadataFile(doc, s, name); err != nil {
				return common.Fatal(err)
			}
		}
	}

	env.Logger.Info().Int("documents", len(docs)).Str("out", out).Msg("Export complete")
	result.Bytes = humanize.Bytes(total)
	return env.Output(c, result)
}
