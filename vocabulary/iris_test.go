package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalName(t *testing.T) {
	tests := []struct {
		name     string
		iri      string
		expected string
	}{
		{"component class", SensorDriver, "SensorDriver"},
		{"rdfs label", RdfsLabel, "label"},
		{"rdf type", RdfType, "type"},
		{"no fragment", "urn:x-local:thing", "urn:x-local:thing"},
		{"trailing hash", "http://example.org/x#", ""},
		{"last hash wins", "http://a#b#c", "c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LocalName(tt.iri))
		})
	}
}

func TestIsComponentClass(t *testing.T) {
	for _, class := range ComponentClasses() {
		assert.True(t, IsComponentClass(class), class)
	}

	assert.False(t, IsComponentClass(ComponentNamespace+"Robot"))
	assert.False(t, IsComponentClass("SensorDriver"))
	assert.False(t, IsComponentClass(""))
}

func TestComponentClasses_ReturnsCopy(t *testing.T) {
	classes := ComponentClasses()
	assert.Len(t, classes, 5)

	classes[0] = "mutated"
	assert.Equal(t, LocalizationNode, ComponentClasses()[0])
}

func TestComponentIRI(t *testing.T) {
	assert.Equal(t, ComponentNamespace+"LidarDriver", ComponentIRI("LidarDriver"))
	assert.Equal(t, ComponentNamespace+"LidarDriver", ComponentIRI("  LidarDriver "))
	assert.Equal(t, "", ComponentIRI("  "))
}
