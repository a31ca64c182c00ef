package restapi

import (
	"github.com/mltrack/mltrack/internal/store"
)

// Wire representations. Field names follow the REST payload conventions of
// the tracking protocol (snake_case, millisecond timestamps).

type Experiment struct {
	ExperimentId     string            `json:"experiment_id"`
	Name             string            `json:"name"`
	ArtifactLocation string            `json:"artifact_location"`
	LifecycleStage   string            `json:"lifecycle_stage"`
	CreationTime     int64             `json:"creation_time"`
	LastUpdateTime   int64             `json:"last_update_time"`
	Tags             map[string]string `json:"tags,omitempty"`
}

func experimentPayload(experiment *store.Experiment) *Experiment {
	return &Experiment{
		ExperimentId:     experiment.ExperimentId,
		Name:             experiment.Name,
		ArtifactLocation: experiment.ArtifactLocation,
		LifecycleStage:   string(experiment.LifecycleStage),
		CreationTime:     experiment.CreatedTime,
		LastUpdateTime:   experiment.LastUpdatedTime,
		Tags:             experiment.Tags,
	}
}

type Run struct {
	RunId          string            `json:"run_id"`
	ExperimentId   string            `json:"experiment_id"`
	RunName        string            `json:"run_name"`
	Status         string            `json:"status"`
	StartTime      int64             `json:"start_time"`
	EndTime        *int64            `json:"end_time,omitempty"`
	LifecycleStage string            `json:"lifecycle_stage"`
	Tags           map[string]string `json:"tags,omitempty"`
}

func runPayload(run *store.Run) *Run {
	return &Run{
		RunId:          run.RunId,
		ExperimentId:   run.ExperimentId,
		RunName:        run.Name,
		Status:         string(run.Status),
		StartTime:      run.StartTime,
		EndTime:        run.EndTime,
		LifecycleStage: string(run.LifecycleStage),
		Tags:           run.Tags,
	}
}

type Metric struct {
	Key       string      `json:"key"`
	Value     float64     `json:"value"`
	Timestamp int64       `json:"timestamp"`
	Step      int64       `json:"step"`
	ModelId   *string     `json:"model_id,omitempty"`
	Dataset   *DatasetRef `json:"dataset,omitempty"`
}

type DatasetRef struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
}

func metricPayload(metric *store.Metric) *Metric {
	payload := &Metric{
		Key:       metric.Key,
		Value:     metric.Value,
		Timestamp: metric.Timestamp,
		Step:      metric.Step,
		ModelId:   metric.ModelId,
	}
	if metric.Dataset != nil {
		payload.Dataset = &DatasetRef{Name: metric.Dataset.Name, Digest: metric.Dataset.Digest}
	}
	return payload
}

func (m *Metric) toStore(runId string) *store.Metric {
	metric := &store.Metric{
		RunId:     runId,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Timestamp,
		Step:      m.Step,
		ModelId:   m.ModelId,
	}
	if m.Dataset != nil {
		metric.Dataset = &store.DatasetRef{Name: m.Dataset.Name, Digest: m.Dataset.Digest}
	}
	return metric
}

type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type LoggedModel struct {
	ModelId          string            `json:"model_id"`
	ExperimentId     string            `json:"experiment_id"`
	SourceRunId      *string           `json:"source_run_id,omitempty"`
	Name             string            `json:"name"`
	ArtifactLocation string            `json:"artifact_location"`
	CreationTime     int64             `json:"creation_time"`
	Tags             map[string]string `json:"tags,omitempty"`
}

func loggedModelPayload(model *store.LoggedModel) *LoggedModel {
	return &LoggedModel{
		ModelId:          model.ModelId,
		ExperimentId:     model.ExperimentId,
		SourceRunId:      model.SourceRunId,
		Name:             model.Name,
		ArtifactLocation: model.ArtifactLocation,
		CreationTime:     model.CreationTime,
		Tags:             model.Tags,
	}
}

type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func userPayload(user *store.User) *User {
	return &User{
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}
}

type PermissionGrant struct {
	ResourceType string `json:"resource_type"`
	ResourceId   string `json:"resource_id"`
	Username     string `json:"username"`
	Permission   string `json:"permission"`
}

func grantPayload(grant *store.PermissionGrant) *PermissionGrant {
	return &PermissionGrant{
		ResourceType: string(grant.ResourceType),
		ResourceId:   grant.ResourceId,
		Username:     grant.Username,
		Permission:   string(grant.Level),
	}
}
