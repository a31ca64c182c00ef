package tracking

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/artifact"
	"github.com/mltrack/mltrack/internal/auth"
	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/store/sqlstore"
)

func newTestService(t *testing.T, defaultLevel store.PermissionLevel) *Service {
	db, err := sqlstore.NewTestingDatabase(t)
	if err != nil {
		t.Fatalf("failed to build testing database: %v", err)
	}
	engine := auth.NewEngine(&auth.Config{DefaultLevel: defaultLevel}, db)
	artifacts := artifact.NewLocalStore(&artifact.Config{RootLocation: t.TempDir()})
	return NewService(&Config{ArtifactProxyEnabled: true}, db, engine, artifacts)
}

func userContext(username string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{Username: username})
}

func TestSearchRunsByMetricFilter(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	r1, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, Name: "r1", StartTime: 1000})
	assert.Nil(t, err)
	r2, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, Name: "r2", StartTime: 2000})
	assert.Nil(t, err)

	// The latest value per key is what the filter sees, so r1 matches on
	// its step-1 value even though step 0 was below the threshold.
	assert.Nil(t, svc.LogMetric(alice, &store.Metric{RunId: r1.RunId, Key: "acc", Value: 0.9, Timestamp: 100, Step: 0}))
	assert.Nil(t, svc.LogMetric(alice, &store.Metric{RunId: r1.RunId, Key: "acc", Value: 0.95, Timestamp: 200, Step: 1}))
	assert.Nil(t, svc.LogMetric(alice, &store.Metric{RunId: r2.RunId, Key: "acc", Value: 0.8, Timestamp: 100, Step: 0}))

	result, err := svc.SearchRuns(alice, &SearchRunsRequest{
		ExperimentIds: []string{experiment.ExperimentId},
		Filter:        "metrics.acc > 0.92",
	})
	assert.Nil(t, err)
	assert.Len(t, result.Runs, 1)
	assert.Equal(t, r1.RunId, result.Runs[0].RunId)
	assert.Empty(t, result.NextPageToken)
}

func TestSearchRunsOrderingAndPagination(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	for i, name := range []string{"a", "b", "c"} {
		run, err := svc.CreateRun(alice, &store.Run{
			ExperimentId: experiment.ExperimentId, Name: name, StartTime: int64(1000 * (i + 1)),
		})
		assert.Nil(t, err)
		assert.Nil(t, svc.LogMetric(alice, &store.Metric{
			RunId: run.RunId, Key: "loss", Value: float64(len(name)) + float64(i), Timestamp: 100, Step: 0,
		}))
	}

	request := &SearchRunsRequest{
		ExperimentIds: []string{experiment.ExperimentId},
		OrderBy:       []string{"attributes.start_time ASC"},
		MaxResults:    2,
	}
	first, err := svc.SearchRuns(alice, request)
	assert.Nil(t, err)
	assert.Len(t, first.Runs, 2)
	assert.Equal(t, "a", first.Runs[0].Name)
	assert.Equal(t, "b", first.Runs[1].Name)
	assert.NotEmpty(t, first.NextPageToken)

	request.PageToken = first.NextPageToken
	second, err := svc.SearchRuns(alice, request)
	assert.Nil(t, err)
	assert.Len(t, second.Runs, 1)
	assert.Equal(t, "c", second.Runs[0].Name)
	assert.Empty(t, second.NextPageToken)
}

func TestSearchRunsOrderByMetric(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	values := map[string]float64{"low": 0.1, "high": 0.9, "mid": 0.5}
	for name, value := range values {
		run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, Name: name, StartTime: 1000})
		assert.Nil(t, err)
		assert.Nil(t, svc.LogMetric(alice, &store.Metric{RunId: run.RunId, Key: "acc", Value: value, Timestamp: 100, Step: 0}))
	}

	result, err := svc.SearchRuns(alice, &SearchRunsRequest{
		ExperimentIds: []string{experiment.ExperimentId},
		OrderBy:       []string{"metrics.acc DESC"},
	})
	assert.Nil(t, err)
	assert.Len(t, result.Runs, 3)
	assert.Equal(t, "high", result.Runs[0].Name)
	assert.Equal(t, "mid", result.Runs[1].Name)
	assert.Equal(t, "low", result.Runs[2].Name)
}

func TestSearchRunsMissingMetricSortsLast(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	values := map[string]float64{"low": 0.1, "high": 0.9}
	for name, value := range values {
		run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, Name: name, StartTime: 1000})
		assert.Nil(t, err)
		assert.Nil(t, svc.LogMetric(alice, &store.Metric{RunId: run.RunId, Key: "acc", Value: value, Timestamp: 100, Step: 0}))
	}
	_, err = svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, Name: "bare", StartTime: 1000})
	assert.Nil(t, err)

	// Runs that never logged the ordering metric rank after the ones that
	// did, in both directions.
	request := &SearchRunsRequest{
		ExperimentIds: []string{experiment.ExperimentId},
		OrderBy:       []string{"metrics.acc DESC"},
	}
	result, err := svc.SearchRuns(alice, request)
	assert.Nil(t, err)
	assert.Len(t, result.Runs, 3)
	assert.Equal(t, "high", result.Runs[0].Name)
	assert.Equal(t, "low", result.Runs[1].Name)
	assert.Equal(t, "bare", result.Runs[2].Name)

	request.OrderBy = []string{"metrics.acc ASC"}
	result, err = svc.SearchRuns(alice, request)
	assert.Nil(t, err)
	assert.Len(t, result.Runs, 3)
	assert.Equal(t, "low", result.Runs[0].Name)
	assert.Equal(t, "high", result.Runs[1].Name)
	assert.Equal(t, "bare", result.Runs[2].Name)
}

func TestReadOnlyUserCannotLogMetric(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")
	bob := userContext("bob")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, StartTime: 1000})
	assert.Nil(t, err)

	// Bob's default READ lets him see the run but not write to it.
	_, err = svc.GetRun(bob, run.RunId)
	assert.Nil(t, err)
	err = svc.LogMetric(bob, &store.Metric{RunId: run.RunId, Key: "acc", Value: 0.9, Timestamp: 100, Step: 0})
	assert.True(t, store.IsPermissionDenied(err))

	// An explicit EDIT grant unlocks writes.
	assert.Nil(t, svc.SetPermission(alice, &store.PermissionGrant{
		ResourceType: store.ResourceExperiment,
		ResourceId:   experiment.ExperimentId,
		Username:     "bob",
		Level:        store.Edit,
	}))
	err = svc.LogMetric(bob, &store.Metric{RunId: run.RunId, Key: "acc", Value: 0.9, Timestamp: 100, Step: 0})
	assert.Nil(t, err)

	// EDIT still is not MANAGE.
	err = svc.DeleteRun(bob, run.RunId)
	assert.True(t, store.IsPermissionDenied(err))
}

func TestHiddenResourcesReadAsNotFound(t *testing.T) {
	svc := newTestService(t, store.NoPermissions)
	alice := userContext("alice")
	bob := userContext("bob")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, StartTime: 1000})
	assert.Nil(t, err)
	model, err := svc.CreateLoggedModel(alice, &store.LoggedModel{ExperimentId: experiment.ExperimentId, Name: "m"})
	assert.Nil(t, err)

	// Absent and unauthorized are indistinguishable.
	_, err = svc.GetExperiment(bob, experiment.ExperimentId)
	assert.True(t, store.IsNotFound(err))
	_, err = svc.GetExperiment(bob, "does-not-exist")
	assert.True(t, store.IsNotFound(err))
	_, err = svc.GetRun(bob, run.RunId)
	assert.True(t, store.IsNotFound(err))
	_, err = svc.GetLoggedModel(bob, model.ModelId)
	assert.True(t, store.IsNotFound(err))
}

func TestSearchSilentlyFiltersUnauthorizedRows(t *testing.T) {
	svc := newTestService(t, store.NoPermissions)
	alice := userContext("alice")
	bob := userContext("bob")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	_, err = svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, StartTime: 1000})
	assert.Nil(t, err)

	result, err := svc.SearchRuns(bob, &SearchRunsRequest{ExperimentIds: []string{experiment.ExperimentId}})
	assert.Nil(t, err)
	assert.Len(t, result.Runs, 0)

	experiments, err := svc.ListExperiments(bob, nil)
	assert.Nil(t, err)
	assert.Len(t, experiments, 0)

	experiments, err = svc.ListExperiments(alice, nil)
	assert.Nil(t, err)
	assert.Len(t, experiments, 1)
}

func TestSearchLoggedModelsByMetric(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)
	run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, StartTime: 1000})
	assert.Nil(t, err)

	for name, auc := range map[string]float64{"weak": 0.6, "strong": 0.9} {
		model, err := svc.CreateLoggedModel(alice, &store.LoggedModel{
			ExperimentId: experiment.ExperimentId,
			SourceRunId:  &run.RunId,
			Name:         name,
		})
		assert.Nil(t, err)
		assert.Nil(t, svc.LogMetric(alice, &store.Metric{
			RunId: run.RunId, Key: "auc", Value: auc, Timestamp: 100, Step: 0, ModelId: &model.ModelId,
		}))
	}

	result, err := svc.SearchLoggedModels(alice, &SearchLoggedModelsRequest{
		ExperimentIds: []string{experiment.ExperimentId},
		Filter:        "metrics.auc > 0.7",
	})
	assert.Nil(t, err)
	assert.Len(t, result.Models, 1)
	assert.Equal(t, "strong", result.Models[0].Name)
}

func TestLoggedModelDefaultArtifactLocation(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "s3://bucket/exp1", nil)
	assert.Nil(t, err)
	model, err := svc.CreateLoggedModel(alice, &store.LoggedModel{ExperimentId: experiment.ExperimentId, Name: "m"})
	assert.Nil(t, err)
	assert.Equal(t, "s3://bucket/exp1/models", model.ArtifactLocation)

	// An omitted experiment location defaults to the experiment id, and the
	// default survives a round trip through the store so model locations
	// stay distinct per experiment.
	experiment, err = svc.CreateExperiment(alice, "exp2", "", nil)
	assert.Nil(t, err)
	assert.Equal(t, experiment.ExperimentId, experiment.ArtifactLocation)
	fetched, err := svc.GetExperiment(alice, experiment.ExperimentId)
	assert.Nil(t, err)
	assert.Equal(t, experiment.ExperimentId, fetched.ArtifactLocation)

	model, err = svc.CreateLoggedModel(alice, &store.LoggedModel{ExperimentId: experiment.ExperimentId, Name: "m2"})
	assert.Nil(t, err)
	assert.Equal(t, experiment.ExperimentId+"/models", model.ArtifactLocation)
}

func TestArtifactRoundTrip(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", t.TempDir(), nil)
	assert.Nil(t, err)
	run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, StartTime: 1000})
	assert.Nil(t, err)

	err = svc.UploadArtifact(alice, run.RunId, "model/weights.bin", strings.NewReader("weights"))
	assert.Nil(t, err)

	files, location, err := svc.ListArtifacts(alice, run.RunId, "model")
	assert.Nil(t, err)
	assert.NotEmpty(t, location)
	assert.Len(t, files, 1)
	assert.Equal(t, "model/weights.bin", files[0].Path)

	reader, err := svc.GetArtifact(alice, run.RunId, "model/weights.bin")
	assert.Nil(t, err)
	content, err := io.ReadAll(reader)
	assert.Nil(t, err)
	assert.Nil(t, reader.Close())
	assert.Equal(t, "weights", string(content))

	// Bob can read but not upload.
	bob := userContext("bob")
	err = svc.UploadArtifact(bob, run.RunId, "model/other.bin", strings.NewReader("x"))
	assert.True(t, store.IsPermissionDenied(err))
	_, err = svc.GetArtifact(bob, run.RunId, "model/weights.bin")
	assert.Nil(t, err)
}

func TestArtifactProxyDisabled(t *testing.T) {
	svc := newTestService(t, store.Read)
	svc.cfg.ArtifactProxyEnabled = false
	alice := userContext("alice")

	experiment, err := svc.CreateExperiment(alice, "exp1", "s3://bucket/exp1", nil)
	assert.Nil(t, err)
	run, err := svc.CreateRun(alice, &store.Run{ExperimentId: experiment.ExperimentId, StartTime: 1000})
	assert.Nil(t, err)

	err = svc.UploadArtifact(alice, run.RunId, "a", strings.NewReader("x"))
	assert.True(t, store.IsPermissionDenied(err))
	_, err = svc.GetArtifact(alice, run.RunId, "a")
	assert.True(t, store.IsPermissionDenied(err))

	// Listing still reports the backing location for direct access.
	files, location, err := svc.ListArtifacts(alice, run.RunId, "")
	assert.Nil(t, err)
	assert.Nil(t, files)
	assert.Equal(t, "s3://bucket/exp1/"+run.RunId+"/artifacts", location)
}

func TestPermissionManagementRequiresManage(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")
	bob := userContext("bob")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)

	grant := &store.PermissionGrant{
		ResourceType: store.ResourceExperiment,
		ResourceId:   experiment.ExperimentId,
		Username:     "bob",
		Level:        store.Edit,
	}
	err = svc.SetPermission(bob, grant)
	assert.True(t, store.IsPermissionDenied(err))
	assert.Nil(t, svc.SetPermission(alice, grant))

	fetched, err := svc.GetPermission(alice, store.ResourceExperiment, experiment.ExperimentId, "bob")
	assert.Nil(t, err)
	assert.Equal(t, store.Edit, fetched.Level)

	assert.Nil(t, svc.DeletePermission(alice, store.ResourceExperiment, experiment.ExperimentId, "bob"))
	_, err = svc.GetPermission(alice, store.ResourceExperiment, experiment.ExperimentId, "bob")
	assert.True(t, store.IsNotFound(err))
}

func TestDeleteAndRestoreExperiment(t *testing.T) {
	svc := newTestService(t, store.Read)
	alice := userContext("alice")
	bob := userContext("bob")

	experiment, err := svc.CreateExperiment(alice, "exp1", "", nil)
	assert.Nil(t, err)

	// READ is not MANAGE.
	err = svc.DeleteExperiment(bob, experiment.ExperimentId)
	assert.True(t, store.IsPermissionDenied(err))

	assert.Nil(t, svc.DeleteExperiment(alice, experiment.ExperimentId))
	fetched, err := svc.GetExperiment(alice, experiment.ExperimentId)
	assert.Nil(t, err)
	assert.Equal(t, store.LifecycleDeleted, fetched.LifecycleStage)

	assert.Nil(t, svc.RestoreExperiment(alice, experiment.ExperimentId))
	fetched, err = svc.GetExperiment(alice, experiment.ExperimentId)
	assert.Nil(t, err)
	assert.Equal(t, store.LifecycleActive, fetched.LifecycleStage)
}
