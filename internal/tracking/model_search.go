package tracking

import (
	"sort"
	"strings"

	"github.com/mltrack/mltrack/internal/store"
)

type modelView struct {
	model   *store.LoggedModel
	metrics map[string]float64
}

// newModelView keeps the latest value per key; linked metrics arrive ordered
// by step then timestamp.
func newModelView(model *store.LoggedModel, metrics []*store.Metric) *modelView {
	view := &modelView{
		model:   model,
		metrics: make(map[string]float64, len(metrics)),
	}
	for _, metric := range metrics {
		view.metrics[metric.Key] = metric.Value
	}
	return view
}

func (v *modelView) matches(f *filter) bool {
	for i := range f.comparisons {
		cmp := &f.comparisons[i]
		switch cmp.kind {
		case fieldMetric:
			value, ok := v.metrics[cmp.key]
			if !ok || !cmp.matchNumber(value) {
				return false
			}
		case fieldParam:
			return false
		case fieldTag:
			value, ok := v.model.Tags[cmp.key]
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

func (v *modelView) matchAttribute(cmp *comparison) bool {
	switch cmp.key {
	case "model_id":
		return cmp.matchString(v.model.ModelId)
	case "name", "model_name":
		return cmp.matchString(v.model.Name)
	case "experiment_id":
		return cmp.matchString(v.model.ExperimentId)
	case "source_run_id":
		if v.model.SourceRunId == nil {
			return false
		}
		return cmp.matchString(*v.model.SourceRunId)
	case "creation_time", "creation_timestamp":
		return cmp.matchNumber(float64(v.model.CreationTime))
	}
	return false
}

func sortModels(views []*modelView, ordering []orderBy) {
	sort.SliceStable(views, func(i, j int) bool {
		for _, order := range ordering {
			if cmp := compareModels(views[i], views[j], order); cmp != 0 {
				return cmp < 0
			}
		}
		return views[i].model.ModelId < views[j].model.ModelId
	})
}

// compareModels folds the direction in so models without the ordering
// metric land after the ranked ones under ASC and DESC alike.
func compareModels(a, b *modelView, order orderBy) int {
	switch order.kind {
	case fieldMetric:
		av, aok := a.metrics[order.key]
		bv, bok := b.metrics[order.key]
		return compareNullableFloats(av, aok, bv, bok, order.ascending)
	case fieldTag:
		return applyDirection(compareNullableStrings(a.model.Tags[order.key], b.model.Tags[order.key]), order.ascending)
	case fieldAttribute:
		switch order.key {
		case "creation_time", "creation_timestamp", "start_time":
			return applyDirection(compareFloats(float64(a.model.CreationTime), float64(b.model.CreationTime)), order.ascending)
		case "name", "model_name":
			return applyDirection(strings.Compare(a.model.Name, b.model.Name), order.ascending)
		case "model_id":
			return applyDirection(strings.Compare(a.model.ModelId, b.model.ModelId), order.ascending)
		}
	}
	return 0
}
