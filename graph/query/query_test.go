package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

func TestAsk(t *testing.T) {
	assert.True(t, strings.HasPrefix(Ask(), "ASK"))
}

func TestListAll_RestrictsToComponentClasses(t *testing.T) {
	q := ListAll()

	assert.Contains(t, q, "PREFIX comp: <http://example.org/ros-components#>")
	assert.Contains(t, q, "VALUES ?type { comp:LocalizationNode comp:SensorDriver comp:PathPlanner comp:Controller comp:PerceptionNode }")
	assert.Contains(t, q, "rdfs:label ?label")
	assert.Contains(t, q, "OPTIONAL { ?component comp:description ?description }")
	assert.Contains(t, q, "ORDER BY ?label")
}

func TestSearch_BindsTermAsLiteral(t *testing.T) {
	q, err := Search("lidar")
	require.NoError(t, err)

	assert.Contains(t, q, `regex(str(?label), "lidar"`)
	assert.Contains(t, q, "comp:hasInput ?input")
	assert.Contains(t, q, "comp:hasOutput ?output")
	assert.Contains(t, q, `regex(str(?output), "lidar"`)
}

func TestSearch_EscapesQuotes(t *testing.T) {
	q, err := Search(`x") } DROP ALL #`)
	require.NoError(t, err)

	assert.NotContains(t, q, `"x")`, "a quote in the term must not close the literal")
	assert.Contains(t, q, `\"`)
}

func TestDetails(t *testing.T) {
	q, err := Details("http://example.org/ros-components#LidarDriver")
	require.NoError(t, err)
	assert.Contains(t, q, "<http://example.org/ros-components#LidarDriver> ?predicate ?object")
}

func TestDetails_RejectsInvalidIRI(t *testing.T) {
	tests := []string{
		"http://example.org/a> ?p ?o } #",
		"http://example.org/with space",
	}
	for _, uri := range tests {
		t.Run(uri, func(t *testing.T) {
			_, err := Details(uri)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidQuery)
		})
	}
}

func TestCount(t *testing.T) {
	q := Count()
	assert.Contains(t, q, "COUNT(DISTINCT ?component) AS ?count")
	assert.Contains(t, q, "VALUES ?type {")
}
