// Package query builds the SPARQL text of the fixed query shapes sent to a remote
// triple store. User input never reaches the query text unescaped: search terms are
// bound as serialized string literals and subject IRIs are validated before use.
package query

import (
	"fmt"
	"strings"

	"github.com/knakk/rdf"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/vocabulary"
)

// Result variable names shared by the SELECT shapes.
const (
	VarComponent   = "component"
	VarLabel       = "label"
	VarType        = "type"
	VarDescription = "description"
	VarPredicate   = "predicate"
	VarObject      = "object"
	VarCount       = "count"
)

// Ask returns the existence check: does the store hold any triple at all.
func Ask() string {
	return "ASK { ?s ?p ?o }\n"
}

// ListAll returns the list-all shape: one row per labelled allow-listed component with
// its optional description.
func ListAll() string {
	var b strings.Builder
	writePrefixes(&b)
	fmt.Fprintf(&b, "SELECT ?%s ?%s ?%s ?%s WHERE {\n", VarComponent, VarLabel, VarType, VarDescription)
	writeCandidatePattern(&b)
	fmt.Fprintf(&b, "}\nORDER BY ?%s\n", VarLabel)
	return b.String()
}

// Search returns the search shape. term is matched case-insensitively as a regular
// expression against the label, the class local name, the description and every
// input/output annotation. Optional joins on annotations can yield duplicate rows;
// callers must de-duplicate.
func Search(term string) (string, error) {
	lit, err := rdf.NewLiteral(term)
	if err != nil {
		return "", errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidQuery, err),
			"query", "Search", "bind search term")
	}
	pattern := lit.Serialize(rdf.NTriples)

	var b strings.Builder
	writePrefixes(&b)
	fmt.Fprintf(&b, "SELECT DISTINCT ?%s ?%s ?%s ?%s WHERE {\n", VarComponent, VarLabel, VarType, VarDescription)
	writeCandidatePattern(&b)
	fmt.Fprintf(&b, "  OPTIONAL { ?%s comp:hasInput ?input }\n", VarComponent)
	fmt.Fprintf(&b, "  OPTIONAL { ?%s comp:hasOutput ?output }\n", VarComponent)
	b.WriteString("  FILTER (\n")
	fmt.Fprintf(&b, "    regex(str(?%s), %s, \"i\") ||\n", VarLabel, pattern)
	fmt.Fprintf(&b, "    regex(replace(str(?%s), \"^.*#\", \"\"), %s, \"i\") ||\n", VarType, pattern)
	fmt.Fprintf(&b, "    regex(str(?%s), %s, \"i\") ||\n", VarDescription, pattern)
	fmt.Fprintf(&b, "    regex(str(?input), %s, \"i\") ||\n", pattern)
	fmt.Fprintf(&b, "    regex(str(?output), %s, \"i\")\n", pattern)
	b.WriteString("  )\n")
	fmt.Fprintf(&b, "}\nORDER BY ?%s\n", VarLabel)
	return b.String(), nil
}

// Details returns every (predicate, object) pair of uri.
func Details(uri string) (string, error) {
	iri, err := rdf.NewIRI(uri)
	if err != nil {
		return "", errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidQuery, err),
			"query", "Details", "bind subject IRI")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT ?%s ?%s WHERE {\n", VarPredicate, VarObject)
	fmt.Fprintf(&b, "  %s ?%s ?%s .\n", iri.Serialize(rdf.NTriples), VarPredicate, VarObject)
	b.WriteString("}\n")
	return b.String(), nil
}

// Count returns the number of distinct allow-listed subjects.
func Count() string {
	var b strings.Builder
	writePrefixes(&b)
	fmt.Fprintf(&b, "SELECT (COUNT(DISTINCT ?%s) AS ?%s) WHERE {\n", VarComponent, VarCount)
	fmt.Fprintf(&b, "  ?%s rdf:type ?%s .\n", VarComponent, VarType)
	writeClassValues(&b)
	b.WriteString("}\n")
	return b.String()
}

func writePrefixes(b *strings.Builder) {
	for _, p := range vocabulary.Prefixes {
		fmt.Fprintf(b, "PREFIX %s: <%s>\n", p[0], p[1])
	}
}

func writeCandidatePattern(b *strings.Builder) {
	fmt.Fprintf(b, "  ?%s rdf:type ?%s ;\n", VarComponent, VarType)
	fmt.Fprintf(b, "    rdfs:label ?%s .\n", VarLabel)
	writeClassValues(b)
	fmt.Fprintf(b, "  OPTIONAL { ?%s comp:description ?%s }\n", VarComponent, VarDescription)
}

func writeClassValues(b *strings.Builder) {
	fmt.Fprintf(b, "  VALUES ?%s {", VarType)
	for _, class := range vocabulary.ComponentClasses() {
		b.WriteString(" comp:")
		b.WriteString(vocabulary.LocalName(class))
	}
	b.WriteString(" }\n")
}
