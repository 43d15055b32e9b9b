package preflight

import (
	"context"

	"cheatdb/internal/config"
	"cheatdb/internal/directory"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. A nil lookup
// reports the directory API as unconfigured.
func RunAll(ctx context.Context, cfg *config.Config, lookup directory.Lookup) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAPI(ctx, lookup, cfg.DirectoryTimeout()),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
