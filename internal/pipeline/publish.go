package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/recipe"
	"reelsmith/internal/render"
	"reelsmith/internal/services"
	"reelsmith/internal/textutil"
)

// publishOutputs copies a run's products into dir. The delivery video is
// copied with integrity verification; auxiliary files are streamed as-is.
// Returned outputs carry their published paths.
func publishOutputs(outputs []render.Output, dir string) ([]render.Output, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "export_outputs",
			"creating output directory failed", err)
	}
	published := make([]render.Output, 0, len(outputs))
	for _, output := range outputs {
		dest := filepath.Join(dir, output.Filename)
		var err error
		if output.Type == render.OutputVideo {
			err = fileutil.CopyVerified(output.Path, dest)
		} else {
			err = fileutil.Copy(output.Path, dest)
		}
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "pipeline", "export_outputs",
				fmt.Sprintf("publishing %s failed", output.Filename), err)
		}
		output.Path = dest
		published = append(published, output)
	}
	return published, nil
}

// publishDirName keys the publication directory by title and recipe, so
// re-rendering a recipe replaces its own outputs and same-titled recipes
// stay apart.
func publishDirName(rec *recipe.Recipe) string {
	base := textutil.OutputBaseName(rec.Title, 40)
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return base
	}
	return base + "-" + id
}
