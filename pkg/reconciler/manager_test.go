package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onsi/gomega"

	_ "github.com/mltrack/mltrack/pkg/test/gomega"
)

type testReconciler struct {
	mu                sync.Mutex
	rebootTimes       []time.Time
	resyncTimes       []time.Time
	reconcileTimes    []time.Time
	resyncSignalAfter int
	resyncSignal      chan bool
}

func (t *testReconciler) Name() string {
	return "test"
}

func (t *testReconciler) Reboot(_ context.Context) {
	t.rebootTimes = append(t.rebootTimes, time.Now())
}

func (t *testReconciler) Resync(_ context.Context, queue *ReconcileQueue[int64]) {
	t.mu.Lock()
	t.resyncTimes = append(t.resyncTimes, time.Now())
	count := len(t.resyncTimes)
	t.mu.Unlock()
	if t.resyncSignalAfter == count {
		t.resyncSignal <- true
	}
}

func (t *testReconciler) resyncCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.resyncTimes)
}

func (t *testReconciler) Reconcile(_ context.Context, items []ReconcileItem[int64]) {
	//TODO implement items
	t.reconcileTimes = append(t.reconcileTimes, time.Now())
}

var _ Reconciler[int64] = &testReconciler{}

func TestManagerStartFinish(t *testing.T) {
	config, err := NewConfig(100*time.Millisecond, 1, 1)
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	r := &testReconciler{
		resyncSignal:      make(chan bool),
		resyncSignalAfter: 10,
	}
	manager := NewManager(context.Background(), config, r)
	manager.Start()
	<-r.resyncSignal
	manager.Finish()
}

func TestManagerResyncsPeriodically(t *testing.T) {
	g := gomega.NewWithT(t)

	config, err := NewConfig(10*time.Millisecond, 1, 1)
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	r := &testReconciler{
		resyncSignal:      make(chan bool, 1),
		resyncSignalAfter: 3,
	}
	manager := NewManager(context.Background(), config, r)
	manager.Start()
	defer manager.Finish()

	g.Eventually(r.resyncCount, time.Second, 5*time.Millisecond).Should(gomega.BeNumerically(">=", 3))
}
