package store

import (
	"context"
)

type ResourceType string

const (
	ResourceExperiment      ResourceType = "experiment"
	ResourceRegisteredModel ResourceType = "registered_model"
)

// PermissionLevel values form a total order; see Rank.
type PermissionLevel string

const (
	NoPermissions PermissionLevel = "NO_PERMISSIONS"
	Read          PermissionLevel = "READ"
	Edit          PermissionLevel = "EDIT"
	Manage        PermissionLevel = "MANAGE"
)

var levelRanks = map[PermissionLevel]int{
	NoPermissions: 0,
	Read:          1,
	Edit:          2,
	Manage:        3,
}

func (l PermissionLevel) Rank() int {
	return levelRanks[l]
}

func ValidLevel(l PermissionLevel) bool {
	_, ok := levelRanks[l]
	return ok
}

// Satisfies reports whether a grant at level l covers the required level.
func (l PermissionLevel) Satisfies(required PermissionLevel) bool {
	return l.Rank() >= required.Rank()
}

type PermissionGrant struct {
	ResourceType ResourceType
	ResourceId   string
	Username     string
	Level        PermissionLevel
}

type PermissionService interface {
	// UpsertGrant creates the grant, or updates the level when a grant for
	// the same (resource, user) already exists.
	UpsertGrant(ctx context.Context, grant *PermissionGrant) error
	GetGrant(ctx context.Context, resourceType ResourceType, resourceId, username string) (*PermissionGrant, error)
	ListGrants(ctx context.Context) ([]*PermissionGrant, error)
	DeleteGrant(ctx context.Context, resourceType ResourceType, resourceId, username string) error
}
