package preflight

import (
	"strings"

	"gifsprite/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
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

// ForAssembly checks the paths used when adding animationPath to archivePath.
func ForAssembly(cfg *config.Config, archivePath, animationPath string) []Result {
	results := []Result{
		CheckArchive("Project archive", archivePath),
		CheckReadable("Animation", animationPath),
	}
	if cfg == nil {
		return results
	}
	if strings.TrimSpace(cfg.Assembly.TemplatePath) != "" {
		results = append(results, CheckReadable("Template", cfg.Assembly.TemplatePath))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	return results
}
