package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/testutil"
	"github.com/RiddheshMore/ros-component-explorer/vocabulary"
)

func TestParse_Turtle(t *testing.T) {
	g, err := Parse(strings.NewReader(testutil.ComponentsTurtle), FormatTurtle)
	require.NoError(t, err)

	assert.Greater(t, g.Len(), 20)

	label, ok := g.FirstObject(testutil.LidarDriverIRI, vocabulary.RdfsLabel)
	require.True(t, ok)
	assert.Equal(t, Literal("LidarDriver"), label)

	class, ok := g.FirstObject(testutil.LidarDriverIRI, vocabulary.RdfType)
	require.True(t, ok)
	assert.Equal(t, IRI(vocabulary.SensorDriver), class)
}

func TestParse_NTriples(t *testing.T) {
	doc := `<http://example.org/ros-components#AMCL> <http://www.w3.org/2000/01/rdf-schema#label> "AMCL" .
<http://example.org/ros-components#AMCL> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/ros-components#LocalizationNode> .
`
	g, err := Parse(strings.NewReader(doc), FormatNTriples)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{testutil.AMCLIRI}, g.Subjects(vocabulary.RdfType, vocabulary.LocalizationNode))
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(testutil.MalformedTurtle), FormatTurtle)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}

func TestParse_MalformedReleasesDecoder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	inputs := []struct {
		name   string
		doc    string
		format Format
	}{
		{"turtle", testutil.MalformedTurtle, FormatTurtle},
		{"broken iri", "<broken iri> <http://example.org/p> <http://example.org/o> .\n", FormatTurtle},
		{"trailing garbage", testutil.ComponentsTurtle + "\n<http://example.org/s> ???\n", FormatTurtle},
		{"ntriples", "<http://example.org/s> <http://example.org/p> .\n", FormatNTriples},
	}
	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			for range 20 {
				_, err := Parse(strings.NewReader(in.doc), in.format)
				require.ErrorIs(t, err, errors.ErrParsingFailed)
			}
		})
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile("/nonexistent/components.ttl", FormatTurtle)
	require.Error(t, err)
}

func TestGraph_Lookups(t *testing.T) {
	g, err := Parse(strings.NewReader(testutil.ComponentsTurtle), FormatTurtle)
	require.NoError(t, err)

	t.Run("objects keep every value in file order", func(t *testing.T) {
		inputs := g.Objects(testutil.AMCLIRI, vocabulary.HasInput)
		assert.Equal(t, []Term{Literal("/scan"), Literal("/map")}, inputs)
	})

	t.Run("subjects of a class", func(t *testing.T) {
		drivers := g.Subjects(vocabulary.RdfType, vocabulary.SensorDriver)
		assert.Equal(t, []string{testutil.LidarDriverIRI, testutil.CameraDriverIRI}, drivers)
	})

	t.Run("unknown subject", func(t *testing.T) {
		assert.Empty(t, g.Triples("http://example.org/ros-components#Missing"))
		_, ok := g.FirstObject("http://example.org/ros-components#Missing", vocabulary.RdfsLabel)
		assert.False(t, ok)
	})

	t.Run("triples of a subject", func(t *testing.T) {
		triples := g.Triples(testutil.PlannerIRI)
		require.Len(t, triples, 3)
		for _, tr := range triples {
			assert.Equal(t, testutil.PlannerIRI, tr.Subject)
		}
	})
}

func TestNew_CopiesInput(t *testing.T) {
	triples := []Triple{{Subject: "s", Predicate: "p", Object: Literal("o")}}
	g := New(triples)
	triples[0].Subject = "changed"

	assert.Len(t, g.Triples("s"), 1)
	assert.Equal(t, 0, New(nil).Len())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		path    string
		want    Format
		wantErr bool
	}{
		{name: "explicit turtle", format: "ttl", want: FormatTurtle},
		{name: "explicit ntriples", format: "N-Triples", want: FormatNTriples},
		{name: "explicit rdfxml", format: "rdf/xml", want: FormatRDFXML},
		{name: "extension nt", path: "data/components.nt", want: FormatNTriples},
		{name: "extension owl", path: "ontology.owl", want: FormatRDFXML},
		{name: "default turtle", path: "data/components.ttl", want: FormatTurtle},
		{name: "unknown", format: "json-ld", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.format, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/turtle", FormatTurtle.ContentType())
	assert.Equal(t, "application/n-triples", FormatNTriples.ContentType())
	assert.Equal(t, "application/rdf+xml", FormatRDFXML.ContentType())
}
