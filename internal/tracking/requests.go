package tracking

import (
	"github.com/mltrack/mltrack/internal/store"
)

type SearchRunsRequest struct {
	ExperimentIds []string
	Filter        string
	OrderBy       []string
	MaxResults    int
	PageToken     string
}

type SearchRunsResponse struct {
	Runs          []*store.Run
	NextPageToken string
}

type SearchLoggedModelsRequest struct {
	ExperimentIds []string
	Filter        string
	OrderBy       []string
	MaxResults    int
	PageToken     string
}

type SearchLoggedModelsResponse struct {
	Models        []*store.LoggedModel
	NextPageToken string
}
