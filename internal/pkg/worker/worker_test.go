package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	pool.Start()

	var done int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := pool.AddTask(FuncTask{TaskName: "mail", Fn: func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&done, 1)
			return nil
		}})
		assert.True(t, ok)
	}
	wg.Wait()
	pool.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&done))
}

func TestWorkerPoolRetriesFailedTask(t *testing.T) {
	var (
		mu      sync.Mutex
		results []error
	)
	succeeded := make(chan struct{})

	pool := NewWorkerPool(1, 4).WithBackoff(time.Millisecond).OnResult(func(task string, err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	})
	pool.Start()
	defer pool.Stop()

	var attempts int32
	pool.AddTask(FuncTask{TaskName: "push", Fn: func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("gateway timeout")
		}
		close(succeeded)
		return nil
	}})

	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	errs := make(chan error, 1)
	pool := NewWorkerPool(1, 1).OnResult(func(task string, err error) { errs <- err })
	pool.maxRetry = 0
	pool.Start()
	defer pool.Stop()

	pool.AddTask(FuncTask{TaskName: "bad", Fn: func(ctx context.Context) error { panic("nil map") }})

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, errPanicked)
	case <-time.After(time.Second):
		t.Fatal("no result reported")
	}
}

func TestAddTaskAfterStop(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	pool.Start()
	pool.Stop()

	assert.False(t, pool.AddTask(FuncTask{TaskName: "late", Fn: func(ctx context.Context) error { return nil }}))
}
