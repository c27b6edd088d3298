package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/assets"
	"reelsmith/internal/services"
)

// newOutput describes an artifact file on disk. The MIME type derives from
// the extension.
func newOutput(typ OutputType, path string) (Output, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Output{}, services.Wrap(services.ErrExternalTool, "render", "register_output",
			fmt.Sprintf("output %s is missing", path), err)
	}
	mime, _ := assets.TypeByExtension(path)
	return Output{
		ID:       uuid.NewString(),
		Type:     typ,
		Filename: filepath.Base(path),
		MIME:     mime,
		Size:     info.Size(),
		Path:     path,
	}, nil
}

// writeTextFile writes a small auxiliary output.
func writeTextFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "write_output",
			fmt.Sprintf("writing %s failed", path), err)
	}
	return nil
}

// manifest is the project summary written next to the delivery outputs.
type manifest struct {
	JobID     string           `json:"job_id"`
	RecipeID  string           `json:"recipe_id"`
	Title     string           `json:"title"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	FrameRate int              `json:"frame_rate"`
	Duration  float64          `json:"duration_seconds"`
	CreatedAt time.Time        `json:"created_at"`
	Outputs   []manifestOutput `json:"outputs"`
}

type manifestOutput struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size_bytes"`
}

// writeManifest summarizes the job's outputs as JSON. The manifest lists
// every output registered before it.
func writeManifest(path string, job *Job, tl *Timeline, title string) error {
	doc := manifest{
		JobID:     job.ID,
		RecipeID:  job.RecipeID,
		Title:     title,
		Width:     tl.Width,
		Height:    tl.Height,
		FrameRate: tl.FrameRate,
		Duration:  tl.Duration,
		CreatedAt: time.Now().UTC(),
	}
	for _, out := range job.Outputs() {
		doc.Outputs = append(doc.Outputs, manifestOutput{
			ID:       out.ID,
			Type:     string(out.Type),
			Filename: out.Filename,
			MIME:     out.MIME,
			Size:     out.Size,
		})
	}
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "write_manifest",
			"encoding manifest failed", err)
	}
	return writeTextFile(path, string(encoded)+"\n")
}
