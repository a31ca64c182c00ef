package tracking

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	"github.com/mltrack/mltrack/internal/store"
)

const (
	defaultMaxResults = 1000
	maxMaxResults     = 50000
)

// runView is one search candidate with its batch-fetched series attached.
type runView struct {
	run     *store.Run
	metrics map[string]float64
	params  map[string]string
}

func (v *runView) matches(f *filter) bool {
	for i := range f.comparisons {
		cmp := &f.comparisons[i]
		switch cmp.kind {
		case fieldMetric:
			value, ok := v.metrics[cmp.key]
			if !ok || !cmp.matchNumber(value) {
				return false
			}
		case fieldParam:
			value, ok := v.params[cmp.key]
			if !ok || !cmp.matchString(value) {
				return false
			}
		case fieldTag:
			value, ok := v.run.Tags[cmp.key]
			if !ok || !cmp.matchString(value) {
				return false
			}
		case fieldAttribute:
			if !v.matchAttribute(cmp) {
				return false
			}
		}
	}
	return true
}

func (v *runView) matchAttribute(cmp *comparison) bool {
	switch cmp.key {
	case "run_id", "run_uuid":
		return cmp.matchString(v.run.RunId)
	case "run_name", "name":
		return cmp.matchString(v.run.Name)
	case "status":
		return cmp.matchString(string(v.run.Status))
	case "experiment_id":
		return cmp.matchString(v.run.ExperimentId)
	case "start_time":
		return cmp.matchNumber(float64(v.run.StartTime))
	case "end_time":
		if v.run.EndTime == nil {
			return false
		}
		return cmp.matchNumber(float64(*v.run.EndTime))
	}
	return false
}

type orderBy struct {
	kind      fieldKind
	key       string
	ascending bool
}

// parseOrderBy accepts clauses like "metrics.acc DESC". The default sort is
// start_time descending.
func parseOrderBy(clauses []string) ([]orderBy, error) {
	if len(clauses) == 0 {
		return []orderBy{{kind: fieldAttribute, key: "start_time", ascending: false}}, nil
	}
	result := make([]orderBy, 0, len(clauses))
	for _, clause := range clauses {
		parts := strings.Fields(clause)
		if len(parts) == 0 || len(parts) > 2 {
			return nil, store.NewSchemaValidation("invalid order_by clause %q", clause)
		}
		kind, key, err := splitIdentifier(parts[0])
		if err != nil {
			return nil, err
		}
		entry := orderBy{kind: kind, key: key, ascending: true}
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				entry.ascending = false
			default:
				return nil, store.NewSchemaValidation("invalid order_by direction %q", parts[1])
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

func sortRuns(views []*runView, ordering []orderBy) {
	sort.SliceStable(views, func(i, j int) bool {
		for _, order := range ordering {
			// compareRuns already folds the direction in, so missing
			// values can stay pinned after present ones either way.
			if cmp := compareRuns(views[i], views[j], order); cmp != 0 {
				return cmp < 0
			}
		}
		// Stable tiebreak.
		return views[i].run.RunId < views[j].run.RunId
	})
}

func compareRuns(a, b *runView, order orderBy) int {
	switch order.kind {
	case fieldMetric:
		av, aok := a.metrics[order.key]
		bv, bok := b.metrics[order.key]
		return compareNullableFloats(av, aok, bv, bok, order.ascending)
	case fieldParam:
		return applyDirection(compareNullableStrings(a.params[order.key], b.params[order.key]), order.ascending)
	case fieldTag:
		return applyDirection(compareNullableStrings(a.run.Tags[order.key], b.run.Tags[order.key]), order.ascending)
	case fieldAttribute:
		switch order.key {
		case "start_time":
			return applyDirection(compareFloats(float64(a.run.StartTime), float64(b.run.StartTime)), order.ascending)
		case "end_time":
			av, aok := float64(0), a.run.EndTime != nil
			if aok {
				av = float64(*a.run.EndTime)
			}
			bv, bok := float64(0), b.run.EndTime != nil
			if bok {
				bv = float64(*b.run.EndTime)
			}
			return compareNullableFloats(av, aok, bv, bok, order.ascending)
		case "run_id", "run_uuid":
			return applyDirection(strings.Compare(a.run.RunId, b.run.RunId), order.ascending)
		case "run_name", "name":
			return applyDirection(strings.Compare(a.run.Name, b.run.Name), order.ascending)
		case "status":
			return applyDirection(strings.Compare(string(a.run.Status), string(b.run.Status)), order.ascending)
		}
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Missing values sort last regardless of direction; the direction only
// reorders present values against each other.
func compareNullableFloats(a float64, aok bool, b float64, bok bool, ascending bool) int {
	switch {
	case aok && bok:
		return applyDirection(compareFloats(a, b), ascending)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

func applyDirection(cmp int, ascending bool) int {
	if ascending {
		return cmp
	}
	return -cmp
}

func compareNullableStrings(a, b string) int {
	return strings.Compare(a, b)
}

// pageToken is the opaque continuation cursor. Offsets are fine here since
// search re-evaluates the whole candidate set per page.
type pageToken struct {
	Offset int `json:"offset"`
}

func encodePageToken(offset int) string {
	data, _ := json.Marshal(pageToken{Offset: offset})
	return base64.StdEncoding.EncodeToString(data)
}

func decodePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, store.NewSchemaValidation("invalid page token")
	}
	var decoded pageToken
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.Offset < 0 {
		return 0, store.NewSchemaValidation("invalid page token")
	}
	return decoded.Offset, nil
}

func normalizeMaxResults(maxResults int) (int, error) {
	if maxResults == 0 {
		return defaultMaxResults, nil
	}
	if maxResults < 0 || maxResults > maxMaxResults {
		return 0, store.NewSchemaValidation("max_results must be between 1 and %d", maxMaxResults)
	}
	return maxResults, nil
}

// latestToMap flattens the latest-metric batch into key->value per run.
func latestToMap(metrics []*store.Metric) map[string]float64 {
	result := make(map[string]float64, len(metrics))
	for _, metric := range metrics {
		result[metric.Key] = metric.Value
	}
	return result
}

func paramsToMap(params []*store.Param) map[string]string {
	result := make(map[string]string, len(params))
	for _, param := range params {
		result[param.Key] = param.Value
	}
	return result
}
