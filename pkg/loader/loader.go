// Package loader fetches STL sources and parses them into render-ready
// geometry.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/stl"
)

// Kind classifies a load failure
type Kind int

const (
	KindFetch Kind = iota + 1
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

var (
	// ErrFetch matches any load that failed while retrieving bytes
	ErrFetch = errors.New("fetch failed")
	// ErrParse matches any load whose bytes were not a recognizable mesh
	ErrParse = errors.New("parse failed")
)

// MeshLoadError carries the underlying cause of a failed load
type MeshLoadError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *MeshLoadError) Error() string {
	return fmt.Sprintf("failed to load mesh %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *MeshLoadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the ErrFetch and ErrParse sentinels
func (e *MeshLoadError) Is(target error) bool {
	switch target {
	case ErrFetch:
		return e.Kind == KindFetch
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// Loader turns a URL into raw geometry
type Loader struct {
	fetcher Fetcher
}

// New creates a loader. A nil fetcher falls back to NewHTTPFetcher.
func New(fetcher Fetcher) *Loader {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	return &Loader{fetcher: fetcher}
}

// Load fetches and parses the source at url. Normals are kept only when the
// stream carried usable ones; otherwise the mesh is returned without them.
func (l *Loader) Load(ctx context.Context, url string) (*geometry.Mesh, error) {
	model, err := l.LoadModel(ctx, url)
	if err != nil {
		return nil, err
	}
	return model.Mesh(), nil
}

// LoadModel is like Load but returns the parsed STL model
func (l *Loader) LoadModel(ctx context.Context, url string) (*stl.Model, error) {
	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &MeshLoadError{Kind: KindFetch, URL: url, Err: err}
	}

	// A cancelled load never parses.
	if err := ctx.Err(); err != nil {
		return nil, &MeshLoadError{Kind: KindFetch, URL: url, Err: err}
	}

	model, err := stl.ParseBytes(data)
	if err != nil {
		return nil, &MeshLoadError{Kind: KindParse, URL: url, Err: err}
	}
	return model, nil
}
