// Package vocabulary defines the IRIs of the ROS component vocabulary and the standard
// RDF terms the explorer reads.
package vocabulary

import (
	"slices"
	"strings"
)

// ComponentNamespace is the base IRI of the component vocabulary (prefix "comp").
const ComponentNamespace = "http://example.org/ros-components#"

// Component predicates
const (
	Description = ComponentNamespace + "description"
	HasInput    = ComponentNamespace + "hasInput"
	HasOutput   = ComponentNamespace + "hasOutput"
	UpdateRate  = ComponentNamespace + "updateRate"
	Package     = ComponentNamespace + "package"
	NodeType    = ComponentNamespace + "nodeType"
	Algorithm   = ComponentNamespace + "algorithm"
	SensorType  = ComponentNamespace + "sensorType"
)

// Component classes surfaced by list and search.
const (
	LocalizationNode = ComponentNamespace + "LocalizationNode"
	SensorDriver     = ComponentNamespace + "SensorDriver"
	PathPlanner      = ComponentNamespace + "PathPlanner"
	Controller       = ComponentNamespace + "Controller"
	PerceptionNode   = ComponentNamespace + "PerceptionNode"
)

var componentClasses = []string{
	LocalizationNode,
	SensorDriver,
	PathPlanner,
	Controller,
	PerceptionNode,
}

// ComponentClasses returns the allow-listed class IRIs in declaration order.
func ComponentClasses() []string {
	return slices.Clone(componentClasses)
}

// IsComponentClass reports whether iri is one of the allow-listed component classes.
func IsComponentClass(iri string) bool {
	return slices.Contains(componentClasses, iri)
}

// ComponentIRI returns the IRI of a term in the component namespace.
// Returns empty string for empty input.
func ComponentIRI(local string) string {
	local = strings.TrimSpace(local)
	if local == "" {
		return ""
	}
	return ComponentNamespace + local
}

// LocalName returns the text after the last '#' of an IRI, or the IRI itself when it
// has no fragment separator.
//
// Examples:
//   - "http://example.org/ros-components#SensorDriver" -> "SensorDriver"
//   - "http://www.w3.org/2000/01/rdf-schema#label" -> "label"
//   - "urn:x-local:thing" -> "urn:x-local:thing"
func LocalName(iri string) string {
	if i := strings.LastIndexByte(iri, '#'); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
