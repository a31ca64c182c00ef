package auth

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mltrack/mltrack/pkg/reconciler"
)

const grantCacheKey = "grant-cache"

// grantReconciler refreshes the engine's grant cache on a schedule so
// grants written by other replicas become visible.
type grantReconciler struct {
	engine *Engine
}

var _ reconciler.Reconciler[string] = &grantReconciler{}

func NewGrantReconcilerManager(ctx context.Context, cfg *Config, engine *Engine) (*reconciler.Manager[string], error) {
	reconcilerCfg, err := reconciler.NewConfig(cfg.GrantResyncFrequency, 1, 1)
	if err != nil {
		return nil, err
	}
	return reconciler.NewManager[string](ctx, reconcilerCfg, &grantReconciler{engine: engine}), nil
}

func (r *grantReconciler) Name() string {
	return "auth-grants"
}

func (r *grantReconciler) Reboot(ctx context.Context) {}

func (r *grantReconciler) Resync(ctx context.Context, queue *reconciler.ReconcileQueue[string]) {
	queue.Add(grantCacheKey)
}

func (r *grantReconciler) Reconcile(ctx context.Context, items []reconciler.ReconcileItem[string]) {
	for _, item := range items {
		err := r.engine.Resync(ctx)
		if err != nil {
			log.Printf("failed to resync grant cache: %s", err.Error())
		}
		if item.Callback != nil {
			item.Callback(err)
		}
	}
}
