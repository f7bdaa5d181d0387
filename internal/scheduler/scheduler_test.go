package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
	syncengine "github.com/fariasdev/mycar-sync/internal/sync"
)

type stubCars struct {
	db.CarCollection
}

func (stubCars) ListPendingCars(_ context.Context, _ ...models.SyncState) ([]models.UserCar, error) {
	return nil, nil
}

func (stubCars) ReplaceAllCars(_ context.Context, _ []models.UserCar) error { return nil }

func (stubCars) GetCurrentCar(_ context.Context) (*models.UserCar, error) {
	return nil, db.ErrNotFound
}

// overlapRemote counts how many GetCars calls are in flight at once.
type overlapRemote struct {
	syncengine.RemoteClient
	active  int32
	maxSeen int32
	calls   int32
}

func (r *overlapRemote) GetCars(_ context.Context) ([]models.UserCar, error) {
	n := atomic.AddInt32(&r.active, 1)
	for {
		seen := atomic.LoadInt32(&r.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&r.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(30 * time.Millisecond)
	atomic.AddInt32(&r.active, -1)
	atomic.AddInt32(&r.calls, 1)
	return nil, nil
}

func TestRunFullSync_SerializesConcurrentCalls(t *testing.T) {
	remote := &overlapRemote{}
	engine := syncengine.NewEngine(&db.Collections{Cars: stubCars{}}, remote)
	sched := &Scheduler{engine: engine}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sched.RunFullSync(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), atomic.LoadInt32(&remote.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&remote.maxSeen))
}

func TestIntervalFromEnv(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "15m")
	assert.Equal(t, 15*time.Minute, intervalFromEnv("SYNC_INTERVAL", time.Hour))

	t.Setenv("SYNC_INTERVAL", "not-a-duration")
	assert.Equal(t, time.Hour, intervalFromEnv("SYNC_INTERVAL", time.Hour))

	t.Setenv("SYNC_INTERVAL", "")
	assert.Equal(t, time.Hour, intervalFromEnv("SYNC_INTERVAL", time.Hour))
}
