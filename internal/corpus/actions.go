package corpus

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/higdocs/internal/common"
	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/corpus"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/frontmatter"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
	"github.com/dtnitsch/higdocs/pkg/parser"
)

// commandVerbs maps command names that differ from their verb.
var commandVerbs = map[string]string{
	"stats":  corpus.VerbSUMMARIZE,
	"issues": corpus.VerbVALIDATE,
}

// BuildRequest turns command flags and arguments into a corpus request.
func BuildRequest(c *cli.Context) (models.Request, error) {
	verb := c.Command.Name
	if v, ok := commandVerbs[verb]; ok {
		verb = v
	}

	docIDs, err := common.ParseIDs(c.String("ids"))
	if err != nil {
		return models.Request{}, err
	}

	constraints := make(map[string]any)
	if c.IsSet("top") {
		constraints["top"] = c.Int("top")
	}
	if c.IsSet("severity") {
		constraints["severity"] = c.String("severity")
	}
	if c.Bool("errors-only") {
		constraints["errors_only"] = true
	}

	req := models.Request{
		Verb:        verb,
		Filter:      c.String("filter"),
		View:        c.String("view"),
		DocIDs:      docIDs,
		Limit:       c.Int("limit"),
		Constraints: constraints,
	}

	switch verb {
	case corpus.VerbSEARCH:
		req.Query = strings.Join(c.Args().Slice(), " ")
	case corpus.VerbGET:
		req.ID = c.Args().First()
		req.Strategy = req.Filter
		req.Filter = ""
	}
	return req, nil
}

// CorpusAction handles the commands backed by corpus verbs.
func CorpusAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	req, err := BuildRequest(c)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitPartial)
	}

	resp := corpus.Handle(env.DB, req)
	if err := env.Output(c, resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return cli.Exit("", common.ExitPartial)
	}
	return nil
}

// GetAction prints one document. The markdown and html formats render the
// stored document; everything else goes through the get verb.
func GetAction(c *cli.Context) error {
	format := strings.ToLower(c.String(common.FlagFormat))
	if !common.IsRenderFormat(format) {
		return CorpusAction(c)
	}

	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	slug := c.Args().First()
	if slug == "" {
		return cli.Exit("a document id is required", common.ExitPartial)
	}
	doc, err := corpus.Lookup(env.DB, slug)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitPartial)
	}

	if format == "html" {
		_, err = c.App.Writer.Write(parser.New().RenderHTML(doc.Body))
		return err
	}
	data, err := frontmatter.Render(&frontmatter.Parsed{
		FrontMatter: doc.FrontMatter,
		Body:        doc.Body,
		Attribution: doc.Attribution,
	})
	if err != nil {
		return common.Fatal(err)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// SuggestAction prints follow-up commands derived from the index.
func SuggestAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	suggestions, err := corpus.Suggest(env.DB)
	if err != nil {
		return common.Fatal(fmt.Errorf("failed to generate suggestions: %w", err))
	}

	if c.IsSet(common.FlagFormat) {
		return env.Output(c, suggestions)
	}
	fmt.Fprint(c.App.Writer, corpus.FormatSuggestions(suggestions))
	return nil
}

// KeywordsAction recounts words across the stored document text, optionally
// narrowed to one platform or category. Without --format it prints a
// numbered list.
func KeywordsAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	docs, _, err := env.DB.ListDocuments(dbpkg.ListOptions{
		Platform: c.String("platform"),
		Category: c.String("category"),
	})
	if err != nil {
		return common.Fatal(err)
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		doc, err := env.DB.GetDocument(d.Slug)
		if err != nil {
			return common.Fatal(err)
		}
		texts = append(texts, doc.PlainText())
	}

	counts, err := mapreduce.MapAll(c.Context, texts, env.Config.Workers)
	if err != nil {
		return common.Fatal(err)
	}

	top := c.Int("top")
	if c.IsSet(common.FlagFormat) {
		return env.Output(c, mapreduce.Ranked(counts, top))
	}
	return mapreduce.WriteTopKeywords(c.App.Writer, counts, top)
}
