package graph

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
)

// Format names an RDF serialization.
type Format string

// Supported serializations
const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatRDFXML   Format = "rdfxml"
)

// ParseFormat resolves a configured format name. An empty name falls back to the file
// extension of path, then to Turtle.
func ParseFormat(name, path string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "nt", "n-triples":
		return FormatNTriples, nil
	case "rdfxml", "rdf", "xml", "rdf/xml":
		return FormatRDFXML, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported RDF format %q", name)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".nt":
		return FormatNTriples, nil
	case ".rdf", ".owl", ".xml":
		return FormatRDFXML, nil
	default:
		return FormatTurtle, nil
	}
}

// ContentType returns the media type used when uploading a document in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatNTriples:
		return "application/n-triples"
	case FormatRDFXML:
		return "application/rdf+xml"
	default:
		return "text/turtle"
	}
}

func (f Format) rdfFormat() (rdf.Format, error) {
	switch f {
	case FormatTurtle, "":
		return rdf.Turtle, nil
	case FormatNTriples:
		return rdf.NTriples, nil
	case FormatRDFXML:
		return rdf.RDFXML, nil
	default:
		return rdf.Turtle, fmt.Errorf("unsupported RDF format %q", string(f))
	}
}
