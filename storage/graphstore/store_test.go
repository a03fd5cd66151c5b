package graphstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/graph"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/storage"
	fixtures "github.com/RiddheshMore/ros-component-explorer/testutil"
	"github.com/RiddheshMore/ros-component-explorer/vocabulary"
)

func TestLidarScenario(t *testing.T) {
	ctx := context.Background()
	s := New(fixtures.WriteFile(t, "lidar.ttl", fixtures.LidarOnlyTurtle), graph.FormatTurtle)
	require.NoError(t, s.Load(ctx))

	want := []storage.Record{{
		URI:         fixtures.LidarDriverIRI,
		Name:        "LidarDriver",
		Class:       "SensorDriver",
		Description: "Front lidar",
	}}

	if diff := cmp.Diff(want, s.ListAll(ctx)); diff != "" {
		t.Errorf("ListAll() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, s.Search(ctx, "lidar")); diff != "" {
		t.Errorf("Search(lidar) mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, s.Search(ctx, "camera"))
	assert.NotNil(t, s.Search(ctx, "camera"))
}

func TestListAll_OneRecordPerComponent(t *testing.T) {
	ctx := context.Background()
	const doc = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix comp: <http://example.org/ros-components#> .

comp:LidarDriver a comp:PathPlanner, comp:SensorDriver ;
    rdfs:label "LidarDriver", "Velodyne" ;
    comp:description "Front lidar", "VLP-16" .
`
	s := New(fixtures.WriteFile(t, "multi.ttl", doc), graph.FormatTurtle)
	require.NoError(t, s.Load(ctx))

	want := []storage.Record{{
		URI:         fixtures.LidarDriverIRI,
		Name:        "LidarDriver",
		Class:       "PathPlanner",
		Description: "Front lidar",
	}}
	if diff := cmp.Diff(want, s.ListAll(ctx)); diff != "" {
		t.Errorf("ListAll() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, s.Search(ctx, "lidar")); diff != "" {
		t.Errorf("Search(lidar) mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, s.Count(ctx))
}

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New(fixtures.WriteFile(s.T(), "components.ttl", fixtures.ComponentsTurtle), graph.FormatTurtle)
	s.Require().NoError(s.store.Load(s.ctx))
}

func (s *StoreSuite) TestListAll_SortedAndAllowListed() {
	records := s.store.ListAll(s.ctx)

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
		s.True(vocabulary.IsComponentClass(vocabulary.ComponentIRI(r.Class)), "class %q", r.Class)
	}
	s.Equal([]string{"AMCL", "CameraDriver", "LidarDriver", "NavFnPlanner"}, names)
}

func (s *StoreSuite) TestListAll_DefaultDescription() {
	for _, r := range s.store.ListAll(s.ctx) {
		if r.URI == fixtures.PlannerIRI {
			s.Equal(storage.DefaultDescription, r.Description)
			return
		}
	}
	s.Fail("planner missing from ListAll")
}

func (s *StoreSuite) TestSearch_BlankTermEqualsListAll() {
	all := s.store.ListAll(s.ctx)
	s.Equal(all, s.store.Search(s.ctx, ""))
	s.Equal(all, s.store.Search(s.ctx, "   "))
}

func (s *StoreSuite) TestSearch_ExactNameIncluded() {
	for _, r := range s.store.ListAll(s.ctx) {
		results := s.store.Search(s.ctx, r.Name)
		s.Contains(results, r, "search %q", r.Name)
	}
}

func (s *StoreSuite) TestSearch_Scope() {
	tests := []struct {
		term string
		want []string
	}{
		{term: "sensordriver", want: []string{"CameraDriver", "LidarDriver"}},
		{term: "monte carlo", want: []string{"AMCL"}},
		{term: "/costmap", want: []string{"NavFnPlanner"}},
		{term: "/image_raw", want: []string{"CameraDriver"}},
		{term: "^(amcl|navfn)", want: []string{"AMCL", "NavFnPlanner"}},
		{term: "available", want: nil},
		{term: "robot platform", want: nil},
	}

	for _, tt := range tests {
		s.Run(tt.term, func() {
			var names []string
			for _, r := range s.store.Search(s.ctx, tt.term) {
				names = append(names, r.Name)
			}
			s.Equal(tt.want, names)
		})
	}
}

func (s *StoreSuite) TestSearch_TwoInputsNotDuplicated() {
	results := s.store.Search(s.ctx, "^/")
	seen := map[string]bool{}
	for _, r := range results {
		s.False(seen[r.URI], "duplicate %s", r.URI)
		seen[r.URI] = true
	}
	s.True(seen[fixtures.AMCLIRI])
}

func (s *StoreSuite) TestSearch_InvalidPattern() {
	results := s.store.Search(s.ctx, "[unclosed")
	s.NotNil(results)
	s.Empty(results)
}

func (s *StoreSuite) TestGetDetails_AgreesWithList() {
	for _, r := range s.store.ListAll(s.ctx) {
		d, ok := s.store.GetDetails(s.ctx, r.URI)
		s.Require().True(ok, r.URI)
		s.Equal(r.Name, d.Name)
		s.Equal(r.Class, d.Class)
	}
}

func (s *StoreSuite) TestGetDetails_Properties() {
	d, ok := s.store.GetDetails(s.ctx, fixtures.AMCLIRI)
	s.Require().True(ok)

	s.Equal("nav2_amcl", d.Property("package"))
	s.Equal([]string{"/scan", "/map"}, d.Inputs())
	s.Equal([]string{"/amcl_pose"}, d.Outputs())
}

func (s *StoreSuite) TestGetDetails_NotFound() {
	_, ok := s.store.GetDetails(s.ctx, "http://example.org/ros-components#Missing")
	s.False(ok)

	_, ok = s.store.GetDetails(s.ctx, fixtures.UnlabeledIRI)
	s.False(ok, "subject without label is not found")
}

func (s *StoreSuite) TestCount() {
	s.Equal(5, s.store.Count(s.ctx), "unlabeled controller is counted, robot is not")
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func TestLoad_MalformedFileLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	path := fixtures.WriteFile(t, "components.ttl", fixtures.ComponentsTurtle)
	s := New(path, graph.FormatTurtle)
	require.NoError(t, s.Load(ctx))
	require.NotEmpty(t, s.ListAll(ctx))

	require.NoError(t, os.WriteFile(path, []byte(fixtures.MalformedTurtle), 0o644))
	err := s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrParsingFailed)

	assert.Empty(t, s.ListAll(ctx))
	assert.Empty(t, s.Search(ctx, "lidar"))
	assert.Equal(t, 0, s.Count(ctx))
	assert.Equal(t, 0, s.TripleCount())
	_, ok := s.GetDetails(ctx, fixtures.LidarDriverIRI)
	assert.False(t, ok)
	assert.ErrorIs(t, s.LoadError(), errors.ErrParsingFailed)

	require.NoError(t, os.WriteFile(path, []byte(fixtures.ComponentsTurtle), 0o644))
	require.NoError(t, s.Load(ctx))
	assert.NoError(t, s.LoadError())
}

func TestLoad_MissingFile(t *testing.T) {
	s := New("/nonexistent/components.ttl", graph.FormatTurtle)
	require.Error(t, s.Load(context.Background()))
	assert.Empty(t, s.ListAll(context.Background()))
}

func TestNew_StartsEmpty(t *testing.T) {
	s := New(fixtures.WriteFile(t, "components.ttl", fixtures.ComponentsTurtle), graph.FormatTurtle)
	assert.Equal(t, storage.BackendLocal, s.Backend())
	assert.Empty(t, s.ListAll(context.Background()))
}

func TestStore_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	registry := metric.NewMetricsRegistry()
	m := registry.CoreMetrics()

	s := New(fixtures.WriteFile(t, "components.ttl", fixtures.ComponentsTurtle), graph.FormatTurtle, WithMetrics(m))
	require.NoError(t, s.Load(ctx))
	s.ListAll(ctx)
	s.Search(ctx, "lidar")

	assert.Equal(t, float64(5), testutil.ToFloat64(m.Components.WithLabelValues(storage.BackendLocal)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal.WithLabelValues(storage.BackendLocal, "list_all", metric.StatusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal.WithLabelValues(storage.BackendLocal, "search", metric.StatusOK)))
}
