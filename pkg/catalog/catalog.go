// Package catalog reads printables and their STL URLs from the print farm
// API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the API of a local development server
const DefaultBaseURL = "http://127.0.0.1:8000"

var (
	// ErrNotFound is returned for unknown printable ids
	ErrNotFound = errors.New("printable not found")
	// ErrNoMesh is returned by MeshURL for printables without an STL
	ErrNoMesh = errors.New("printable has no stl")
)

// Printable is one catalog entry
type Printable struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	STL   *string `json:"stl_url"`
}

// MeshURL returns the STL URL of p
func (p Printable) MeshURL() (string, error) {
	if p.STL == nil || *p.STL == "" {
		return "", fmt.Errorf("%s (%d): %w", p.Name, p.ID, ErrNoMesh)
	}
	return *p.STL, nil
}

// APIError is an error payload returned by the API
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("catalog: HTTP %d", e.Status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Client talks to the printables endpoints
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a client for baseURL. If baseURL is empty,
// DefaultBaseURL is used.
func NewClient(baseURL string, client *http.Client) *Client {
	u := strings.TrimSuffix(baseURL, "/")
	if u == "" {
		u = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: u, client: client}
}

// BaseURL returns the API base the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Printables lists every printable in id order
func (c *Client) Printables(ctx context.Context) ([]Printable, error) {
	var out struct {
		Printables []Printable `json:"printables"`
	}
	if err := c.get(ctx, "/api/printables", &out); err != nil {
		return nil, err
	}
	if out.Printables == nil {
		return nil, errors.New("catalog: invalid response: missing printables array")
	}
	return out.Printables, nil
}

// Printable fetches a single printable
func (c *Client) Printable(ctx context.Context, id int) (*Printable, error) {
	var p Printable
	if err := c.get(ctx, "/api/printables/"+strconv.Itoa(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error *APIError `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != nil {
			apiErr.Code = body.Error.Code
			apiErr.Message = body.Error.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}
