package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/printables", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"printables":[
			{"id":1,"name":"Gear","color":"red","stl_url":"http://example.com/api/printables/1/stl"},
			{"id":2,"name":"Sketch","color":"blue","stl_url":null}
		]}`))
	})
	mux.HandleFunc("/api/printables/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1,"name":"Gear","color":"red","stl_url":"http://example.com/api/printables/1/stl"}`))
	})
	mux.HandleFunc("/api/printables/2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":2,"name":"Sketch","color":"blue","stl_url":null}`))
	})
	mux.HandleFunc("/api/printables/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND"}}`))
	})
	mux.HandleFunc("/api/printables/5", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
		w.Write([]byte(`{"error":{"code":"NOT_IMPLEMENTED","message":"later"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPrintables(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL+"/", nil)

	list, err := c.Printables(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "Gear", list[0].Name)
	u, err := list[0].MeshURL()
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/printables/1/stl", u)

	assert.Nil(t, list[1].STL)
	_, err = list[1].MeshURL()
	assert.ErrorIs(t, err, ErrNoMesh)
}

func TestPrintable(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, srv.Client())

	p, err := c.Printable(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "red", p.Color)

	_, err = c.Printable(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Printable(context.Background(), 5)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotImplemented, apiErr.Status)
	assert.Equal(t, "NOT_IMPLEMENTED", apiErr.Code)
	assert.EqualError(t, err, "catalog: HTTP 501 NOT_IMPLEMENTED: later")
}

func TestPrintablesInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Printables(context.Background())
	assert.ErrorContains(t, err, "missing printables array")
}

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("", nil).BaseURL())
}
