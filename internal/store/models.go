package store

import (
	"context"
)

// LoggedModel is an independently addressable model. It may point back at
// the run that produced it but is never addressed through that run.
type LoggedModel struct {
	ModelId          string
	ExperimentId     string
	SourceRunId      *string
	Name             string
	ArtifactLocation string
	CreationTime     int64
	Tags             map[string]string
}

type ModelService interface {
	CreateLoggedModel(ctx context.Context, model *LoggedModel) (*LoggedModel, error)
	GetLoggedModel(ctx context.Context, modelId string) (*LoggedModel, error)
	ListLoggedModels(ctx context.Context, experimentIds []string) ([]*LoggedModel, error)
	// ModelMetrics returns the metrics linked to each of the given models.
	ModelMetrics(ctx context.Context, modelIds []string) (map[string][]*Metric, error)
}
