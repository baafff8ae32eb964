package loader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/stl"
)

func wedge(t *testing.T) []byte {
	t.Helper()

	m := stl.NewModel("wedge")
	m.AddTriangle(geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(10, 0, 0),
		geometry.NewVector3(0, 5, 0),
	))

	var buf bytes.Buffer
	require.NoError(t, stl.WriteBinary(&buf, m))
	return buf.Bytes()
}

func TestLoadHTTP(t *testing.T) {
	data := wedge(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "model/stl")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	mesh, err := New(nil).Load(context.Background(), srv.URL+"/wedge.stl")
	require.NoError(t, err)
	assert.Equal(t, 1, mesh.TriangleCount())
	assert.True(t, mesh.HasNormals())
	assert.Equal(t, geometry.NewVector3(10, 0, 0), mesh.Positions[1])
}

func TestLoadHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(nil).Load(context.Background(), srv.URL+"/missing.stl")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.False(t, errors.Is(err, ErrParse))

	var loadErr *MeshLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, KindFetch, loadErr.Kind)
	assert.Contains(t, loadErr.Error(), "404")
}

func TestLoadParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	_, err := New(nil).Load(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, errors.Is(err, stl.ErrUnrecognizedFormat))
}

func TestLoadNonFiniteVertex(t *testing.T) {
	src := "solid x\nfacet normal 0 0 1\nouter loop\nvertex nan 1 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid x\n"
	path := filepath.Join(t.TempDir(), "nan.stl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	_, err := New(nil).Load(context.Background(), path)
	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, errors.Is(err, stl.ErrNonFinite))
}

func TestLoadFilePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wedge.stl")
	require.NoError(t, os.WriteFile(path, wedge(t), 0o644))

	l := New(nil)
	for _, src := range []string{path, "file://" + path} {
		mesh, err := l.Load(context.Background(), src)
		require.NoError(t, err, src)
		assert.Equal(t, 1, mesh.TriangleCount(), src)
	}

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.stl"))
	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadUnsupportedScheme(t *testing.T) {
	_, err := New(nil).Load(context.Background(), "ftp://example.com/a.stl")
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestFetchSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	f := &HTTPFetcher{MaxBytes: 100}
	_, err := New(f).Load(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.True(t, errors.Is(err, ErrFetch))

	f.MaxBytes = -1
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, data, 1024)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		cancel()
		return wedge(t), nil
	})

	_, err := New(fetcher).Load(ctx, "mem://wedge")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fetch", KindFetch.String())
	assert.Equal(t, "parse", KindParse.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestLocalPath(t *testing.T) {
	cases := []struct {
		url   string
		path  string
		local bool
	}{
		{"models/box.stl", "models/box.stl", true},
		{"/tmp/box.stl", "/tmp/box.stl", true},
		{"file:///tmp/box.stl", "/tmp/box.stl", true},
		{`C:\models\box.stl`, `C:\models\box.stl`, true},
		{"https://example.com/box.stl", "", false},
		{"ftp://example.com/box.stl", "", false},
	}

	for _, tc := range cases {
		path, ok := LocalPath(tc.url)
		assert.Equal(t, tc.local, ok, tc.url)
		assert.Equal(t, tc.path, path, tc.url)
	}
}
