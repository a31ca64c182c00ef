package store

import (
	"context"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusScheduled RunStatus = "SCHEDULED"
	RunStatusFinished  RunStatus = "FINISHED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusKilled    RunStatus = "KILLED"
)

// Terminal reports whether the status permits no further transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusFinished, RunStatusFailed, RunStatusKilled:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the recognized run states.
func ValidStatus(s RunStatus) bool {
	switch s {
	case RunStatusRunning, RunStatusScheduled, RunStatusFinished, RunStatusFailed, RunStatusKilled:
		return true
	}
	return false
}

type Run struct {
	Id             int64
	RunId          string
	ExperimentId   string
	Name           string
	Status         RunStatus
	StartTime      int64
	EndTime        *int64
	LifecycleStage LifecycleStage
	Tags           map[string]string
}

type RunService interface {
	// CreateRun fails with NotFound when the owning experiment does not
	// exist or is soft-deleted.
	CreateRun(ctx context.Context, run *Run) (*Run, error)
	GetRun(ctx context.Context, runId string) (*Run, error)
	// UpdateRunStatus enforces the run state machine: transitions out of a
	// terminal state fail with InvalidStateTransition.
	UpdateRunStatus(ctx context.Context, runId string, status RunStatus, endTime *int64) error
	SetRunLifecycleStage(ctx context.Context, runId string, stage LifecycleStage) error
	ListRuns(ctx context.Context, experimentIds []string, stages []LifecycleStage) ([]*Run, error)
	SetRunTag(ctx context.Context, runId string, key, value string) error
	DeleteRunTag(ctx context.Context, runId string, key string) error
}
