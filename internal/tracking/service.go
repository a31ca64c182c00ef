package tracking

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mltrack/mltrack/internal/artifact"
	"github.com/mltrack/mltrack/internal/auth"
	"github.com/mltrack/mltrack/internal/store"
)

// Service is the permission-aware orchestration layer over the metadata and
// artifact stores. Every operation resolves the caller from the context and
// consults the permission engine before touching storage.
type Service struct {
	cfg       *Config
	db        store.Database
	engine    *auth.Engine
	artifacts artifact.Store
}

func NewService(cfg *Config, db store.Database, engine *auth.Engine, artifacts artifact.Store) *Service {
	return &Service{
		cfg:       cfg,
		db:        db,
		engine:    engine,
		artifacts: artifacts,
	}
}

func (s *Service) ArtifactProxyEnabled() bool {
	return s.cfg.ArtifactProxyEnabled
}

func principalFrom(ctx context.Context) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFrom(ctx)
	if !ok || principal == nil {
		return nil, store.NewPermissionDenied("no authenticated principal")
	}
	return principal, nil
}

// requireExperiment enforces the required level on the experiment. Callers
// lacking even READ see NotFound so the resource's existence never leaks;
// callers that can read but not act get PermissionDenied.
func (s *Service) requireExperiment(ctx context.Context, experimentId string, required store.PermissionLevel) (*store.Experiment, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	experiment, err := s.db.Experiments().GetExperiment(ctx, experimentId)
	if err != nil {
		return nil, err
	}
	level, err := s.engine.Level(ctx, principal, store.ResourceExperiment, experimentId)
	if err != nil {
		return nil, err
	}
	if !level.Satisfies(store.Read) {
		return nil, store.NewNotFound("experiment %s not found", experimentId)
	}
	if !level.Satisfies(required) {
		log.Printf("denied: user %q requested %s on experiment %s with %s",
			principal.Username, required, experimentId, level)
		return nil, store.NewPermissionDenied("user %q lacks %s on experiment %s",
			principal.Username, required, experimentId)
	}
	return experiment, nil
}

func (s *Service) requireRun(ctx context.Context, runId string, required store.PermissionLevel) (*store.Run, error) {
	run, err := s.db.Runs().GetRun(ctx, runId)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireExperiment(ctx, run.ExperimentId, required); err != nil {
		if store.IsNotFound(err) {
			return nil, store.NewNotFound("run %s not found", runId)
		}
		return nil, err
	}
	return run, nil
}

// CreateExperiment grants the creator MANAGE on the new experiment.
func (s *Service) CreateExperiment(ctx context.Context, name, artifactLocation string, tags map[string]string) (*store.Experiment, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, store.NewSchemaValidation("experiment name must not be empty")
	}

	candidate := &store.Experiment{
		Name:             name,
		ArtifactLocation: artifactLocation,
		Tags:             tags,
	}
	// The default location is derived from the id, so mint the id here
	// instead of leaving it to the store. It has to be persisted this way:
	// later reads and model-location defaults build on it.
	if candidate.ArtifactLocation == "" {
		candidate.ExperimentId = uuid.NewString()
		candidate.ArtifactLocation = candidate.ExperimentId
	}
	experiment, err := s.db.Experiments().CreateExperiment(ctx, candidate)
	if err != nil {
		return nil, err
	}

	err = s.engine.UpsertGrant(ctx, &store.PermissionGrant{
		ResourceType: store.ResourceExperiment,
		ResourceId:   experiment.ExperimentId,
		Username:     principal.Username,
		Level:        store.Manage,
	})
	if err != nil {
		return nil, err
	}
	return experiment, nil
}

func (s *Service) GetExperiment(ctx context.Context, experimentId string) (*store.Experiment, error) {
	return s.requireExperiment(ctx, experimentId, store.Read)
}

func (s *Service) GetExperimentByName(ctx context.Context, name string) (*store.Experiment, error) {
	experiment, err := s.db.Experiments().GetExperimentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.requireExperiment(ctx, experiment.ExperimentId, store.Read)
}

// ListExperiments silently omits experiments the caller cannot read.
func (s *Service) ListExperiments(ctx context.Context, stages []store.LifecycleStage) ([]*store.Experiment, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	experiments, err := s.db.Experiments().ListExperiments(ctx, stages)
	if err != nil {
		return nil, err
	}
	visible := make([]*store.Experiment, 0, len(experiments))
	for _, experiment := range experiments {
		level, err := s.engine.Level(ctx, principal, store.ResourceExperiment, experiment.ExperimentId)
		if err != nil {
			return nil, err
		}
		if level.Satisfies(store.Read) {
			visible = append(visible, experiment)
		}
	}
	return visible, nil
}

func (s *Service) RenameExperiment(ctx context.Context, experimentId, name string) error {
	if _, err := s.requireExperiment(ctx, experimentId, store.Edit); err != nil {
		return err
	}
	if name == "" {
		return store.NewSchemaValidation("experiment name must not be empty")
	}
	return s.db.Experiments().RenameExperiment(ctx, experimentId, name)
}

func (s *Service) DeleteExperiment(ctx context.Context, experimentId string) error {
	if _, err := s.requireExperiment(ctx, experimentId, store.Manage); err != nil {
		return err
	}
	return s.db.Experiments().SetExperimentLifecycleStage(ctx, experimentId, store.LifecycleDeleted)
}

func (s *Service) RestoreExperiment(ctx context.Context, experimentId string) error {
	if _, err := s.requireExperiment(ctx, experimentId, store.Manage); err != nil {
		return err
	}
	return s.db.Experiments().SetExperimentLifecycleStage(ctx, experimentId, store.LifecycleActive)
}

func (s *Service) SetExperimentTag(ctx context.Context, experimentId, key, value string) error {
	if _, err := s.requireExperiment(ctx, experimentId, store.Edit); err != nil {
		return err
	}
	if key == "" {
		return store.NewSchemaValidation("tag key must not be empty")
	}
	return s.db.Experiments().SetExperimentTag(ctx, experimentId, key, value)
}

func (s *Service) CreateRun(ctx context.Context, run *store.Run) (*store.Run, error) {
	if _, err := s.requireExperiment(ctx, run.ExperimentId, store.Edit); err != nil {
		return nil, err
	}
	return s.db.Runs().CreateRun(ctx, run)
}

func (s *Service) GetRun(ctx context.Context, runId string) (*store.Run, error) {
	return s.requireRun(ctx, runId, store.Read)
}

func (s *Service) UpdateRunStatus(ctx context.Context, runId string, status store.RunStatus, endTime *int64) error {
	if _, err := s.requireRun(ctx, runId, store.Edit); err != nil {
		return err
	}
	return s.db.Runs().UpdateRunStatus(ctx, runId, status, endTime)
}

func (s *Service) DeleteRun(ctx context.Context, runId string) error {
	if _, err := s.requireRun(ctx, runId, store.Manage); err != nil {
		return err
	}
	return s.db.Runs().SetRunLifecycleStage(ctx, runId, store.LifecycleDeleted)
}

func (s *Service) RestoreRun(ctx context.Context, runId string) error {
	if _, err := s.requireRun(ctx, runId, store.Manage); err != nil {
		return err
	}
	return s.db.Runs().SetRunLifecycleStage(ctx, runId, store.LifecycleActive)
}

func (s *Service) SetRunTag(ctx context.Context, runId, key, value string) error {
	if _, err := s.requireRun(ctx, runId, store.Edit); err != nil {
		return err
	}
	if key == "" {
		return store.NewSchemaValidation("tag key must not be empty")
	}
	return s.db.Runs().SetRunTag(ctx, runId, key, value)
}

func (s *Service) DeleteRunTag(ctx context.Context, runId, key string) error {
	if _, err := s.requireRun(ctx, runId, store.Edit); err != nil {
		return err
	}
	return s.db.Runs().DeleteRunTag(ctx, runId, key)
}

func (s *Service) LogMetric(ctx context.Context, metric *store.Metric) error {
	if _, err := s.requireRun(ctx, metric.RunId, store.Edit); err != nil {
		return err
	}
	if metric.Key == "" {
		return store.NewSchemaValidation("metric key must not be empty")
	}
	return s.db.Metrics().LogMetric(ctx, metric)
}

func (s *Service) LogParam(ctx context.Context, param *store.Param) error {
	if _, err := s.requireRun(ctx, param.RunId, store.Edit); err != nil {
		return err
	}
	if param.Key == "" {
		return store.NewSchemaValidation("param key must not be empty")
	}
	return s.db.Params().LogParam(ctx, param)
}

func (s *Service) LogBatch(ctx context.Context, runId string, metrics []*store.Metric, params []*store.Param, tags map[string]string) error {
	if _, err := s.requireRun(ctx, runId, store.Edit); err != nil {
		return err
	}
	for _, metric := range metrics {
		if metric.Key == "" {
			return store.NewSchemaValidation("metric key must not be empty")
		}
	}
	for _, param := range params {
		if param.Key == "" {
			return store.NewSchemaValidation("param key must not be empty")
		}
	}
	return s.db.Metrics().LogBatch(ctx, runId, metrics, params, tags)
}

func (s *Service) GetMetricHistory(ctx context.Context, runId, key string) ([]*store.Metric, error) {
	if _, err := s.requireRun(ctx, runId, store.Read); err != nil {
		return nil, err
	}
	return s.db.Metrics().GetMetricHistory(ctx, runId, key)
}

func (s *Service) CreateLoggedModel(ctx context.Context, model *store.LoggedModel) (*store.LoggedModel, error) {
	experiment, err := s.requireExperiment(ctx, model.ExperimentId, store.Edit)
	if err != nil {
		return nil, err
	}
	if model.Name == "" {
		return nil, store.NewSchemaValidation("model name must not be empty")
	}
	if model.ArtifactLocation == "" {
		model.ArtifactLocation = joinLocation(experiment.ArtifactLocation, "models")
	}
	return s.db.Models().CreateLoggedModel(ctx, model)
}

func (s *Service) GetLoggedModel(ctx context.Context, modelId string) (*store.LoggedModel, error) {
	model, err := s.db.Models().GetLoggedModel(ctx, modelId)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireExperiment(ctx, model.ExperimentId, store.Read); err != nil {
		if store.IsNotFound(err) {
			return nil, store.NewNotFound("logged model %s not found", modelId)
		}
		return nil, err
	}
	return model, nil
}

// SearchRuns evaluates the filter over the latest metric per key, the
// write-once params and the tags of every visible run.
func (s *Service) SearchRuns(ctx context.Context, req *SearchRunsRequest) (*SearchRunsResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := parseFilter(req.Filter)
	if err != nil {
		return nil, err
	}
	ordering, err := parseOrderBy(req.OrderBy)
	if err != nil {
		return nil, err
	}
	maxResults, err := normalizeMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}
	offset, err := decodePageToken(req.PageToken)
	if err != nil {
		return nil, err
	}

	visibleIds := make([]string, 0, len(req.ExperimentIds))
	for _, experimentId := range req.ExperimentIds {
		level, err := s.engine.Level(ctx, principal, store.ResourceExperiment, experimentId)
		if err != nil {
			return nil, err
		}
		if level.Satisfies(store.Read) {
			visibleIds = append(visibleIds, experimentId)
		}
	}

	stages := []store.LifecycleStage{store.LifecycleActive}
	runs, err := s.db.Runs().ListRuns(ctx, visibleIds, stages)
	if err != nil {
		return nil, err
	}

	runIds := make([]string, 0, len(runs))
	for _, run := range runs {
		runIds = append(runIds, run.RunId)
	}
	latest, err := s.db.Metrics().LatestMetrics(ctx, runIds)
	if err != nil {
		return nil, err
	}
	params, err := s.db.Params().GetParams(ctx, runIds)
	if err != nil {
		return nil, err
	}

	matched := make([]*runView, 0, len(runs))
	for _, run := range runs {
		view := &runView{
			run:     run,
			metrics: latestToMap(latest[run.RunId]),
			params:  paramsToMap(params[run.RunId]),
		}
		if view.matches(parsed) {
			matched = append(matched, view)
		}
	}
	sortRuns(matched, ordering)

	response := &SearchRunsResponse{Runs: []*store.Run{}}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + maxResults
	if end > len(matched) {
		end = len(matched)
	}
	for _, view := range matched[offset:end] {
		response.Runs = append(response.Runs, view.run)
	}
	if end < len(matched) {
		response.NextPageToken = encodePageToken(end)
	}
	return response, nil
}

// SearchLoggedModels ranks models by a metric when the ordering requests
// one. Model metrics are the metrics linked through model_id.
func (s *Service) SearchLoggedModels(ctx context.Context, req *SearchLoggedModelsRequest) (*SearchLoggedModelsResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := parseFilter(req.Filter)
	if err != nil {
		return nil, err
	}
	ordering, err := parseOrderBy(req.OrderBy)
	if err != nil {
		return nil, err
	}
	maxResults, err := normalizeMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}
	offset, err := decodePageToken(req.PageToken)
	if err != nil {
		return nil, err
	}

	visibleIds := make([]string, 0, len(req.ExperimentIds))
	for _, experimentId := range req.ExperimentIds {
		level, err := s.engine.Level(ctx, principal, store.ResourceExperiment, experimentId)
		if err != nil {
			return nil, err
		}
		if level.Satisfies(store.Read) {
			visibleIds = append(visibleIds, experimentId)
		}
	}

	models, err := s.db.Models().ListLoggedModels(ctx, visibleIds)
	if err != nil {
		return nil, err
	}
	modelIds := make([]string, 0, len(models))
	for _, model := range models {
		modelIds = append(modelIds, model.ModelId)
	}
	metrics, err := s.db.Models().ModelMetrics(ctx, modelIds)
	if err != nil {
		return nil, err
	}

	matched := make([]*modelView, 0, len(models))
	for _, model := range models {
		view := newModelView(model, metrics[model.ModelId])
		if view.matches(parsed) {
			matched = append(matched, view)
		}
	}
	sortModels(matched, ordering)

	response := &SearchLoggedModelsResponse{Models: []*store.LoggedModel{}}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + maxResults
	if end > len(matched) {
		end = len(matched)
	}
	for _, view := range matched[offset:end] {
		response.Models = append(response.Models, view.model)
	}
	if end < len(matched) {
		response.NextPageToken = encodePageToken(end)
	}
	return response, nil
}

// Artifact access goes through the run's location under its experiment.

func (s *Service) runArtifactLocation(run *store.Run, experiment *store.Experiment) string {
	return joinLocation(experiment.ArtifactLocation, run.RunId, "artifacts")
}

func (s *Service) artifactContext(ctx context.Context, runId string, required store.PermissionLevel) (string, error) {
	run, err := s.requireRun(ctx, runId, required)
	if err != nil {
		return "", err
	}
	experiment, err := s.db.Experiments().GetExperiment(ctx, run.ExperimentId)
	if err != nil {
		return "", err
	}
	return s.runArtifactLocation(run, experiment), nil
}

func (s *Service) UploadArtifact(ctx context.Context, runId, path string, reader io.Reader) error {
	if !s.cfg.ArtifactProxyEnabled {
		return store.NewPermissionDenied("artifact proxying is disabled")
	}
	location, err := s.artifactContext(ctx, runId, store.Edit)
	if err != nil {
		return err
	}
	return s.artifacts.Put(ctx, location, path, reader)
}

func (s *Service) GetArtifact(ctx context.Context, runId, path string) (io.ReadCloser, error) {
	if !s.cfg.ArtifactProxyEnabled {
		return nil, store.NewPermissionDenied("artifact proxying is disabled")
	}
	location, err := s.artifactContext(ctx, runId, store.Read)
	if err != nil {
		return nil, err
	}
	return s.artifacts.Get(ctx, location, path)
}

func (s *Service) ListArtifacts(ctx context.Context, runId, path string) ([]artifact.FileInfo, string, error) {
	location, err := s.artifactContext(ctx, runId, store.Read)
	if err != nil {
		return nil, "", err
	}
	if !s.cfg.ArtifactProxyEnabled {
		// Clients go straight to the backing store.
		return nil, location, nil
	}
	files, err := s.artifacts.List(ctx, location, path)
	if err != nil {
		return nil, "", err
	}
	return files, location, nil
}

// Permission management requires MANAGE on the target resource.

func (s *Service) requireManage(ctx context.Context, resourceType store.ResourceType, resourceId string) error {
	principal, err := principalFrom(ctx)
	if err != nil {
		return err
	}
	if resourceType == store.ResourceExperiment {
		_, err := s.requireExperiment(ctx, resourceId, store.Manage)
		return err
	}
	return s.engine.Check(ctx, principal, resourceType, resourceId, store.Manage)
}

func (s *Service) SetPermission(ctx context.Context, grant *store.PermissionGrant) error {
	if err := s.requireManage(ctx, grant.ResourceType, grant.ResourceId); err != nil {
		return err
	}
	if !store.ValidLevel(grant.Level) {
		return store.NewSchemaValidation("unknown permission level %q", grant.Level)
	}
	return s.engine.UpsertGrant(ctx, grant)
}

func (s *Service) GetPermission(ctx context.Context, resourceType store.ResourceType, resourceId, username string) (*store.PermissionGrant, error) {
	if err := s.requireManage(ctx, resourceType, resourceId); err != nil {
		return nil, err
	}
	return s.db.Permissions().GetGrant(ctx, resourceType, resourceId, username)
}

func (s *Service) DeletePermission(ctx context.Context, resourceType store.ResourceType, resourceId, username string) error {
	if err := s.requireManage(ctx, resourceType, resourceId); err != nil {
		return err
	}
	return s.engine.DeleteGrant(ctx, resourceType, resourceId, username)
}

func joinLocation(parts ...string) string {
	result := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if result == "" {
			result = part
			continue
		}
		result = fmt.Sprintf("%s/%s", result, part)
	}
	return result
}
