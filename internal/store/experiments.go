package store

import (
	"context"
)

type LifecycleStage string

const (
	LifecycleActive  LifecycleStage = "active"
	LifecycleDeleted LifecycleStage = "deleted"
)

type Experiment struct {
	Id               int64
	ExperimentId     string
	Name             string
	ArtifactLocation string
	LifecycleStage   LifecycleStage
	CreatedTime      int64
	LastUpdatedTime  int64
	Tags             map[string]string
}

type ExperimentService interface {
	// CreateExperiment fails with AlreadyExists when the name collides with
	// an experiment that is not soft-deleted.
	CreateExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error)
	GetExperiment(ctx context.Context, experimentId string) (*Experiment, error)
	GetExperimentByName(ctx context.Context, name string) (*Experiment, error)
	ListExperiments(ctx context.Context, stages []LifecycleStage) ([]*Experiment, error)
	RenameExperiment(ctx context.Context, experimentId string, name string) error
	SetExperimentLifecycleStage(ctx context.Context, experimentId string, stage LifecycleStage) error
	SetExperimentTag(ctx context.Context, experimentId string, key, value string) error
}
