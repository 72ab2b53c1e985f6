package db

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// GetRunIDOrLatest returns the run id from the first argument, or the
// latest finished run when none is given or the argument is "latest".
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.NArg() == 0 || c.Args().First() == "latest" {
		run, err := database.LatestRun()
		if err != nil {
			return 0, fmt.Errorf("failed to get latest run: %w", err)
		}
		if run == nil {
			return 0, fmt.Errorf("no runs found. Run 'higdocs index' first")
		}
		return run.RunID, nil
	}

	runID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run ID: %s", c.Args().First())
	}
	return runID, nil
}
