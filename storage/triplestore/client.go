package triplestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/knakk/sparql"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

const sparqlResultsJSON = "application/sparql-results+json"

// Client speaks the SPARQL protocol to one repository: a query endpoint for ASK and
// SELECT and a statements endpoint for bulk uploads. Failed calls are not retried.
type Client struct {
	queryURL      string
	statementsURL string
	httpClient    *http.Client
	repo          *sparql.Repo
}

// NewClient creates a client. statementsURL defaults to queryURL + "/statements".
func NewClient(queryURL, statementsURL string, timeout time.Duration) (*Client, error) {
	if queryURL == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "triplestore.Client", "NewClient", "validate query URL")
	}
	if _, err := url.ParseRequestURI(queryURL); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"triplestore.Client", "NewClient", "parse query URL")
	}
	if statementsURL == "" {
		statementsURL = strings.TrimSuffix(queryURL, "/") + "/statements"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	repo, err := sparql.NewRepo(queryURL, sparql.Timeout(timeout))
	if err != nil {
		return nil, errors.WrapInvalid(err, "triplestore.Client", "NewClient", "create SPARQL repository")
	}

	return &Client{
		queryURL:      queryURL,
		statementsURL: statementsURL,
		httpClient:    &http.Client{Timeout: timeout},
		repo:          repo,
	}, nil
}

// QueryURL returns the query endpoint.
func (c *Client) QueryURL() string {
	return c.queryURL
}

// Ask runs an ASK query and returns its boolean answer.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, errors.WrapInvalid(err, "triplestore.Client", "Ask", "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", sparqlResultsJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrNoConnection, err),
			"triplestore.Client", "Ask", "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, errors.WrapTransient(statusError(resp), "triplestore.Client", "Ask", "check response")
	}

	var answer struct {
		Boolean *bool `json:"boolean"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return false, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"triplestore.Client", "Ask", "decode response")
	}
	if answer.Boolean == nil {
		return false, errors.WrapInvalid(fmt.Errorf("%w: missing boolean field", errors.ErrInvalidData),
			"triplestore.Client", "Ask", "decode response")
	}
	return *answer.Boolean, nil
}

// Upload posts a serialized triple document to the statements endpoint. Any 2xx
// answer is success.
func (c *Client) Upload(ctx context.Context, body []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.statementsURL, bytes.NewReader(body))
	if err != nil {
		return errors.WrapInvalid(err, "triplestore.Client", "Upload", "build request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrNoConnection, err),
			"triplestore.Client", "Upload", "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.WrapTransient(statusError(resp), "triplestore.Client", "Upload", "check response")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Select runs a SELECT query and returns each solution as variable name to value.
// Unbound variables are absent from their row.
func (c *Client) Select(ctx context.Context, query string) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "triplestore.Client", "Select", "check context")
	}

	res, err := c.repo.Query(query)
	if err != nil {
		return nil, errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err),
			"triplestore.Client", "Select", "run query")
	}

	solutions := res.Solutions()
	rows := make([]map[string]string, 0, len(solutions))
	for _, solution := range solutions {
		row := make(map[string]string, len(solution))
		for name, term := range solution {
			row[name] = term.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("%w: %s", errors.ErrUnexpectedStatus, resp.Status)
	}
	return fmt.Errorf("%w: %s: %s", errors.ErrUnexpectedStatus, resp.Status, msg)
}
