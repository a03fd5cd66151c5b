package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/RiddheshMore/ros-component-explorer/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
}

type listPage struct {
	Term       string
	Status     string
	Components []storage.Record
}

type notFoundPage struct {
	URI     string
	Message string
}

// knownProperty is a labelled property shown on the detail page when present.
type knownProperty struct {
	Label string
	Key   string
}

var knownProperties = []knownProperty{
	{Label: "Update Rate", Key: "updateRate"},
	{Label: "Package", Key: "package"},
	{Label: "Nodetype", Key: "nodeType"},
	{Label: "Algorithm", Key: "algorithm"},
	{Label: "Sensor Type", Key: "sensorType"},
}

type propertyRow struct {
	Label string
	Value string
}

type detailPage struct {
	URI         string
	Name        string
	Class       string
	Description string
	Inputs      []string
	Outputs     []string
	Properties  []propertyRow
}

func newDetailPage(d storage.Detail) detailPage {
	page := detailPage{
		URI:         d.URI,
		Name:        d.Name,
		Class:       d.Class,
		Description: d.Property("description"),
		Inputs:      d.Inputs(),
		Outputs:     d.Outputs(),
	}
	if page.Description == "" {
		page.Description = storage.DefaultDescription
	}
	for _, p := range knownProperties {
		if values := d.Values(p.Key); len(values) > 0 {
			page.Properties = append(page.Properties, propertyRow{Label: p.Label, Value: strings.Join(values, ", ")})
		}
	}
	return page
}

// render executes a page into a buffer first so a template failure still yields a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render page", "page", name, "error", err,
			"request_id", RequestID(r.Context()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
