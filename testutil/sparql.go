package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
)

var askPattern = regexp.MustCompile(`(?m)^\s*ASK\b`)

// Row is one SELECT solution: variable name to value. Values starting with http:// or
// https:// are returned as IRIs, everything else as plain literals.
type Row map[string]string

// SPARQLEndpoint is an in-process SPARQL protocol endpoint. ASK answers reflect whether
// data has been uploaded; SELECT answers come from the configured rows function.
type SPARQLEndpoint struct {
	Server *httptest.Server

	mu           sync.Mutex
	populated    bool
	rows         func(query string) []Row
	queryStatus  int
	uploadStatus int
	rawSelect    string
	queries      []string
	uploads      [][]byte
	uploadTypes  []string
}

// NewSPARQLEndpoint starts an endpoint that is closed when the test ends.
func NewSPARQLEndpoint(t testing.TB) *SPARQLEndpoint {
	t.Helper()
	e := &SPARQLEndpoint{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repositories/components/statements", e.handleStatements)
	mux.HandleFunc("/repositories/components", e.handleQuery)
	e.Server = httptest.NewServer(mux)
	t.Cleanup(e.Server.Close)
	return e
}

// QueryURL is the SPARQL query endpoint.
func (e *SPARQLEndpoint) QueryURL() string {
	return e.Server.URL + "/repositories/components"
}

// StatementsURL is the bulk upload endpoint.
func (e *SPARQLEndpoint) StatementsURL() string {
	return e.QueryURL() + "/statements"
}

// SetPopulated sets the ASK answer.
func (e *SPARQLEndpoint) SetPopulated(populated bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.populated = populated
}

// SetRows sets the SELECT answer for every query.
func (e *SPARQLEndpoint) SetRows(rows func(query string) []Row) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = rows
}

// SetQueryStatus makes query requests fail with code. Zero restores normal answers.
func (e *SPARQLEndpoint) SetQueryStatus(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queryStatus = code
}

// SetUploadStatus makes uploads fail with code. Zero restores normal answers.
func (e *SPARQLEndpoint) SetUploadStatus(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploadStatus = code
}

// SetRawSelect replaces SELECT answers with a raw body, used to send malformed JSON.
func (e *SPARQLEndpoint) SetRawSelect(body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rawSelect = body
}

// Queries returns every query text received.
func (e *SPARQLEndpoint) Queries() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.queries...)
}

// Uploads returns the number of upload requests received.
func (e *SPARQLEndpoint) Uploads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.uploads)
}

// UploadBody returns the body of upload i.
func (e *SPARQLEndpoint) UploadBody(i int) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uploads[i]
}

// UploadContentType returns the Content-Type of upload i.
func (e *SPARQLEndpoint) UploadContentType(i int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uploadTypes[i]
}

func (e *SPARQLEndpoint) handleStatements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploads = append(e.uploads, body)
	e.uploadTypes = append(e.uploadTypes, r.Header.Get("Content-Type"))
	if e.uploadStatus != 0 {
		w.WriteHeader(e.uploadStatus)
		return
	}
	e.populated = true
	w.WriteHeader(http.StatusNoContent)
}

func (e *SPARQLEndpoint) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	query := r.PostForm.Get("query")

	e.mu.Lock()
	e.queries = append(e.queries, query)
	status, populated, rows, raw := e.queryStatus, e.populated, e.rows, e.rawSelect
	e.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/sparql-results+json")
	if askPattern.MatchString(query) {
		_ = json.NewEncoder(w).Encode(map[string]any{"head": map[string]any{}, "boolean": populated})
		return
	}
	if raw != "" {
		_, _ = io.WriteString(w, raw)
		return
	}

	var solutions []Row
	if rows != nil {
		solutions = rows(query)
	}
	_ = json.NewEncoder(w).Encode(selectResults(solutions))
}

func selectResults(rows []Row) map[string]any {
	vars := map[string]bool{}
	bindings := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		binding := make(map[string]any, len(row))
		for name, value := range row {
			vars[name] = true
			kind := "literal"
			if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
				kind = "uri"
			}
			binding[name] = map[string]string{"type": kind, "value": value}
		}
		bindings = append(bindings, binding)
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]any{
		"head":    map[string]any{"vars": names},
		"results": map[string]any{"bindings": bindings},
	}
}
