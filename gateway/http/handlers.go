package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/health"
	"github.com/RiddheshMore/ros-component-explorer/storage"
)

// SearchResponse is the JSON shape of list and search answers.
type SearchResponse struct {
	Term       string           `json:"term"`
	Count      int              `json:"count"`
	Components []storage.Record `json:"components"`
}

func newSearchResponse(term string, records []storage.Record) SearchResponse {
	if records == nil {
		records = []storage.Record{}
	}
	return SearchResponse{Term: term, Count: len(records), Components: records}
}

// StatusLine is the summary shown above the component list.
func StatusLine(term string, count int) string {
	if storage.IsBlankTerm(term) {
		return "Showing all " + strconv.Itoa(count) + " components"
	}
	return "Found " + strconv.Itoa(count) + " component(s)"
}

func (s *Server) handleListPage(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	records := s.store.Search(r.Context(), term)

	s.render(w, r, http.StatusOK, "list.html", listPage{
		Term:       term,
		Status:     StatusLine(term, len(records)),
		Components: records,
	})
}

func (s *Server) handleDetailPage(w http.ResponseWriter, r *http.Request) {
	uri := strings.TrimSpace(r.URL.Query().Get("uri"))
	if uri == "" {
		s.render(w, r, http.StatusBadRequest, "notfound.html", notFoundPage{Message: "No component selected."})
		return
	}

	detail, ok := s.store.GetDetails(r.Context(), uri)
	if !ok {
		s.render(w, r, http.StatusNotFound, "notfound.html", notFoundPage{URI: uri, Message: "Component not found."})
		return
	}
	s.render(w, r, http.StatusOK, "detail.html", newDetailPage(detail))
}

func (s *Server) handleListAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSearchResponse("", s.store.ListAll(r.Context())))
}

func (s *Server) handleSearchAPI(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, newSearchResponse(term, s.store.Search(r.Context(), term)))
}

func (s *Server) handleDetailAPI(w http.ResponseWriter, r *http.Request) {
	uri := strings.TrimSpace(r.URL.Query().Get("uri"))
	if uri == "" {
		s.writeError(w, r, errors.WrapInvalid(errors.ErrInvalidQuery, "Server", "handleDetailAPI", "read uri parameter"))
		return
	}

	detail, ok := s.store.GetDetails(r.Context(), uri)
	if !ok {
		s.writeError(w, r, errors.Wrap(errors.ErrNotFound, "Server", "handleDetailAPI", "look up "+uri))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.monitor == nil {
		writeJSON(w, http.StatusOK, health.NewHealthy(SystemName, "No health monitor configured"))
		return
	}

	status := s.monitor.AggregateHealth(SystemName)
	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
