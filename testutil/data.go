// Package testutil provides fixtures and fakes shared by the explorer tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Component IRIs declared by ComponentsTurtle.
const (
	LidarDriverIRI  = "http://example.org/ros-components#LidarDriver"
	CameraDriverIRI = "http://example.org/ros-components#CameraDriver"
	AMCLIRI         = "http://example.org/ros-components#AMCL"
	PlannerIRI      = "http://example.org/ros-components#NavFnPlanner"
	UnlabeledIRI    = "http://example.org/ros-components#Unlabeled"
	RobotIRI        = "http://example.org/ros-components#TurtleBot"
)

// ComponentsTurtle is a small component graph. It holds four labelled allow-listed
// components, one allow-listed subject without label and one subject whose class is
// not allow-listed.
const ComponentsTurtle = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix comp: <http://example.org/ros-components#> .

comp:LidarDriver a comp:SensorDriver ;
    rdfs:label "LidarDriver" ;
    comp:description "Front lidar" ;
    comp:sensorType "3D Lidar" ;
    comp:hasOutput "/points" .

comp:CameraDriver a comp:SensorDriver ;
    rdfs:label "CameraDriver" ;
    comp:description "USB camera publishing raw images" ;
    comp:hasOutput "/image_raw" ;
    comp:hasOutput "/camera_info" .

comp:AMCL a comp:LocalizationNode ;
    rdfs:label "AMCL" ;
    comp:description "Monte Carlo localization" ;
    comp:package "nav2_amcl" ;
    comp:hasInput "/scan" ;
    comp:hasInput "/map" ;
    comp:hasOutput "/amcl_pose" .

comp:NavFnPlanner a comp:PathPlanner ;
    rdfs:label "NavFnPlanner" ;
    comp:hasInput "/costmap" .

comp:Unlabeled a comp:Controller ;
    comp:description "Controller without a label" .

comp:TurtleBot a comp:Robot ;
    rdfs:label "TurtleBot" ;
    comp:description "Robot platform" .
`

// LidarOnlyTurtle declares a single SensorDriver.
const LidarOnlyTurtle = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix comp: <http://example.org/ros-components#> .

comp:LidarDriver a comp:SensorDriver ;
    rdfs:label "LidarDriver" ;
    comp:description "Front lidar" .
`

// MalformedTurtle does not parse.
const MalformedTurtle = `@prefix comp: <http://example.org/ros-components#> .
comp:Broken a comp:SensorDriver ;
    rdfs:label "missing prefix and terminator"
`

// WriteFile writes content into a fresh temp dir and returns the file path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
