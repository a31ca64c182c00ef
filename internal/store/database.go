package store

type Database interface {
	Experiments() ExperimentService
	Runs() RunService
	Metrics() MetricService
	Params() ParamService
	Models() ModelService
	Users() UserService
	Permissions() PermissionService
	Flags() FlagService
}
