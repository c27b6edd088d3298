// Package assets resolves recipe material identifiers to files on disk.
package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/services"
)

// Kind is the broad media category of an asset, derived from its extension.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindFont  Kind = "font"
	KindOther Kind = "other"
)

// Asset is a resolved material.
type Asset struct {
	ID   string
	Path string
	MIME string
	Kind Kind
	Size int64
}

// Resolver maps a material ID to an asset.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Asset, error)
}

type typeInfo struct {
	mime string
	kind Kind
}

var typesByExtension = map[string]typeInfo{
	".png":  {"image/png", KindImage},
	".jpg":  {"image/jpeg", KindImage},
	".jpeg": {"image/jpeg", KindImage},
	".gif":  {"image/gif", KindImage},
	".webp": {"image/webp", KindImage},
	".mp4":  {"video/mp4", KindVideo},
	".mov":  {"video/quicktime", KindVideo},
	".webm": {"video/webm", KindVideo},
	".mkv":  {"video/x-matroska", KindVideo},
	".wav":  {"audio/wav", KindAudio},
	".mp3":  {"audio/mpeg", KindAudio},
	".aac":  {"audio/aac", KindAudio},
	".m4a":  {"audio/mp4", KindAudio},
	".flac": {"audio/flac", KindAudio},
	".ogg":  {"audio/ogg", KindAudio},
	".ttf":  {"font/ttf", KindFont},
	".otf":  {"font/otf", KindFont},
}

// TypeByExtension classifies a filename. Unknown extensions come back as
// application/octet-stream, KindOther.
func TypeByExtension(name string) (mime string, kind Kind) {
	info, ok := typesByExtension[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "application/octet-stream", KindOther
	}
	return info.mime, info.kind
}

// DirResolver resolves IDs as file names under a materials directory.
type DirResolver struct {
	root string
}

// NewDirResolver builds a resolver over the given directory.
func NewDirResolver(root string) *DirResolver {
	return &DirResolver{root: root}
}

// Resolve maps id to a file under the materials directory. IDs must stay
// inside the directory; anything missing or escaping resolves to
// services.ErrNotFound.
func (r *DirResolver) Resolve(_ context.Context, id string) (Asset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Asset{}, services.Wrap(services.ErrValidation, "assets", "resolve",
			"empty asset id", nil)
	}
	if !filepath.IsLocal(id) {
		return Asset{}, services.Wrap(services.ErrValidation, "assets", "resolve",
			fmt.Sprintf("asset id %q escapes the materials directory", id), nil)
	}

	path := filepath.Join(r.root, id)
	info, err := os.Stat(path)
	if err != nil {
		return Asset{}, services.Wrap(services.ErrNotFound, "assets", "resolve",
			fmt.Sprintf("material %q not found under %s", id, r.root), err)
	}
	if info.IsDir() {
		return Asset{}, services.Wrap(services.ErrValidation, "assets", "resolve",
			fmt.Sprintf("material %q is a directory", id), nil)
	}

	mime, kind := TypeByExtension(id)
	return Asset{
		ID:   id,
		Path: path,
		MIME: mime,
		Kind: kind,
		Size: info.Size(),
	}, nil
}

// MapResolver serves a fixed set of assets, mainly for tests and in-memory
// recipes.
type MapResolver map[string]Asset

// Resolve implements Resolver.
func (m MapResolver) Resolve(_ context.Context, id string) (Asset, error) {
	asset, ok := m[id]
	if !ok {
		return Asset{}, services.Wrap(services.ErrNotFound, "assets", "resolve",
			fmt.Sprintf("material %q not registered", id), nil)
	}
	return asset, nil
}
