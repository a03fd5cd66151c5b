// Package graph holds an immutable in-memory RDF triple set with subject and predicate
// indexes, decoded from a static serialization file.
package graph

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knakk/rdf"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

// TermKind distinguishes IRIs, blank nodes and literals in object position.
type TermKind int

const (
	// KindIRI is an IRI reference
	KindIRI TermKind = iota
	// KindBlank is a blank node, Value carries the "_:" prefix
	KindBlank
	// KindLiteral is a literal, Value is its lexical form
	KindLiteral
)

// Term is an RDF term reduced to the parts the explorer displays.
type Term struct {
	Value string
	Kind  TermKind
}

// String returns the term value.
func (t Term) String() string {
	return t.Value
}

// IRI returns an IRI term.
func IRI(value string) Term {
	return Term{Value: value, Kind: KindIRI}
}

// Literal returns a literal term.
func Literal(value string) Term {
	return Term{Value: value, Kind: KindLiteral}
}

// Triple is a single (subject, predicate, object) fact.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// Graph is a read-only triple set. Triples keep their decode order, so every lookup
// returns results in file order.
type Graph struct {
	triples     []Triple
	bySubject   map[string][]int
	byPredicate map[string][]int
}

// New builds a graph over triples. The slice is copied.
func New(triples []Triple) *Graph {
	g := &Graph{
		triples:     make([]Triple, len(triples)),
		bySubject:   make(map[string][]int),
		byPredicate: make(map[string][]int),
	}
	copy(g.triples, triples)

	for i, t := range g.triples {
		g.bySubject[t.Subject] = append(g.bySubject[t.Subject], i)
		g.byPredicate[t.Predicate] = append(g.byPredicate[t.Predicate], i)
	}
	return g
}

// Parse decodes every triple in r. The whole document must decode or nothing is returned.
func Parse(r io.Reader, format Format) (*Graph, error) {
	rdfFormat, err := format.rdfFormat()
	if err != nil {
		return nil, errors.WrapInvalid(err, "Graph", "Parse", "resolve format")
	}

	dec := rdf.NewTripleDecoder(r, rdfFormat)
	var triples []Triple
	for {
		t, err := dec.Decode()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			drain(dec)
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
				"Graph", "Parse", fmt.Sprintf("decode triple %d", len(triples)+1))
		}
		triples = append(triples, Triple{
			Subject:   termValue(t.Subj),
			Predicate: termValue(t.Pred),
			Object:    convertTerm(t.Obj),
		})
	}

	return New(triples), nil
}

// drain consumes the rest of the stream so the decoder's lexer goroutine can exit.
func drain(dec rdf.TripleDecoder) {
	for {
		if _, err := dec.Decode(); stderrors.Is(err, io.EOF) {
			return
		}
	}
}

// ParseFile opens path and decodes it with Parse.
func ParseFile(path string, format Format) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Graph", "ParseFile", "open triple file")
	}
	defer f.Close()

	return Parse(f, format)
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns every triple with the given subject.
func (g *Graph) Triples(subject string) []Triple {
	idx := g.bySubject[subject]
	out := make([]Triple, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.triples[i])
	}
	return out
}

// Objects returns the objects of (subject, predicate, ?o).
func (g *Graph) Objects(subject, predicate string) []Term {
	var out []Term
	for _, i := range g.bySubject[subject] {
		if g.triples[i].Predicate == predicate {
			out = append(out, g.triples[i].Object)
		}
	}
	return out
}

// FirstObject returns the first object of (subject, predicate, ?o).
func (g *Graph) FirstObject(subject, predicate string) (Term, bool) {
	for _, i := range g.bySubject[subject] {
		if g.triples[i].Predicate == predicate {
			return g.triples[i].Object, true
		}
	}
	return Term{}, false
}

// Subjects returns the distinct subjects of (?s, predicate, object) for an IRI object,
// in first-seen order.
func (g *Graph) Subjects(predicate, object string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range g.byPredicate[predicate] {
		t := g.triples[i]
		if t.Object.Kind != KindIRI || t.Object.Value != object || seen[t.Subject] {
			continue
		}
		seen[t.Subject] = true
		out = append(out, t.Subject)
	}
	return out
}

func termValue(t rdf.Term) string {
	return convertTerm(t).Value
}

func convertTerm(t rdf.Term) Term {
	switch v := t.(type) {
	case rdf.IRI:
		return IRI(v.String())
	case rdf.Literal:
		return Literal(v.String())
	case rdf.Blank:
		return Term{Value: "_:" + strings.TrimPrefix(v.String(), "_:"), Kind: KindBlank}
	default:
		return Term{Value: t.String(), Kind: KindLiteral}
	}
}
