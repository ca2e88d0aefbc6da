package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueTasks(n int, delay func(i int) time.Duration) []Task {
	tasks := make([]Task, n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = Task{
			ID: i,
			Execute: func(ctx context.Context) (Result, error) {
				if delay != nil {
					time.Sleep(delay(i))
				}
				return Result{ID: i, Data: i * 10}, nil
			},
		}
	}
	return tasks
}

func TestPool(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		rateLimit int
		tasks     []Task
		wantIDs   []int
		wantErr   string
	}{
		{
			name:    "single worker keeps order",
			workers: 1,
			tasks:   valueTasks(4, nil),
			wantIDs: []int{0, 1, 2, 3},
		},
		{
			name:    "results ordered by submission when later tasks finish first",
			workers: 4,
			tasks: valueTasks(4, func(i int) time.Duration {
				return time.Duration(4-i) * 20 * time.Millisecond
			}),
			wantIDs: []int{0, 1, 2, 3},
		},
		{
			name:    "more tasks than queue capacity",
			workers: 2,
			tasks:   valueTasks(50, nil),
			wantIDs: func() []int {
				ids := make([]int, 50)
				for i := range ids {
					ids[i] = i
				}
				return ids
			}(),
		},
		{
			name:      "rate limited",
			workers:   2,
			rateLimit: 100,
			tasks:     valueTasks(3, nil),
			wantIDs:   []int{0, 1, 2},
		},
		{
			name:    "task error",
			workers: 2,
			tasks: append(valueTasks(2, nil), Task{
				ID: 7,
				Execute: func(ctx context.Context) (Result, error) {
					return Result{}, errors.New("planned error")
				},
			}),
			wantErr: "task 7 failed: planned error",
		},
		{
			name:    "no tasks",
			workers: 3,
			wantIDs: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(Config{Workers: tt.workers, RateLimit: tt.rateLimit})
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			require.NoError(t, pool.Start(ctx))
			defer pool.Stop()

			for _, task := range tt.tasks {
				require.NoError(t, pool.Submit(task))
			}

			results, err := pool.Wait()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, results)
				return
			}
			require.NoError(t, err)

			ids := make([]int, 0, len(results))
			for _, r := range results {
				ids = append(ids, r.ID)
				assert.Equal(t, r.ID*10, r.Data)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{Workers: 4, RateLimit: 10}},
		{name: "zero workers", config: Config{Workers: 0}, wantErr: true},
		{name: "negative workers", config: Config{Workers: -1}, wantErr: true},
		{name: "negative rate limit", config: Config{Workers: 1, RateLimit: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, pool)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, pool)
			}
		})
	}
}

func TestPoolLifecycleErrors(t *testing.T) {
	pool, err := NewPool(Config{Workers: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, pool.Submit(Task{ID: 1}), ErrNotStarted)
	_, err = pool.Wait()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.NoError(t, pool.Stop())

	require.NoError(t, pool.Start(context.Background()))
	assert.Error(t, pool.Start(context.Background()))

	_, err = pool.Wait()
	require.NoError(t, err)
	assert.Error(t, pool.Submit(Task{ID: 2}))

	assert.NoError(t, pool.Stop())
	assert.NoError(t, pool.Stop())
}

func TestPoolCancellation(t *testing.T) {
	pool, err := NewPool(Config{Workers: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx))

	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		require.NoError(t, pool.Submit(Task{
			ID: i,
			Execute: func(ctx context.Context) (Result, error) {
				started <- struct{}{}
				<-ctx.Done()
				return Result{}, ctx.Err()
			},
		}))
	}
	<-started
	<-started
	cancel()

	_, err = pool.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusStopped, pool.Status())
}

func TestPoolConcurrency(t *testing.T) {
	pool, err := NewPool(Config{Workers: 3})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	var current, peak atomic.Int32
	for i := 0; i < 9; i++ {
		require.NoError(t, pool.Submit(Task{
			ID: i,
			Execute: func(ctx context.Context) (Result, error) {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				current.Add(-1)
				return Result{}, nil
			},
		}))
	}

	results, err := pool.Wait()
	require.NoError(t, err)
	assert.Len(t, results, 9)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestPoolStats(t *testing.T) {
	pool, err := NewPool(Config{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, StatusStopped, pool.Status())
	assert.Equal(t, Stats{Status: StatusStopped}, pool.Stats())

	require.NoError(t, pool.Start(context.Background()))
	assert.Equal(t, StatusIdle, pool.Status())

	release := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, pool.Submit(Task{
		ID: 1,
		Execute: func(ctx context.Context) (Result, error) {
			close(running)
			<-release
			return Result{}, nil
		},
	}))
	require.NoError(t, pool.Submit(Task{
		ID: 2,
		Execute: func(ctx context.Context) (Result, error) {
			return Result{}, errors.New("planned error")
		},
	}))

	<-running
	stats := pool.Stats()
	assert.GreaterOrEqual(t, stats.ActiveWorkers, 1)
	assert.Equal(t, StatusProcessing, stats.Status)
	close(release)

	_, err = pool.Wait()
	require.Error(t, err)

	stats = pool.Stats()
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 1, stats.FailedTasks)
	assert.Equal(t, 0, stats.QueuedTasks)
	assert.Equal(t, 0, stats.ActiveWorkers)
	assert.Equal(t, StatusIdle, stats.Status)
	assert.Greater(t, stats.Uptime, time.Duration(0))

	require.NoError(t, pool.Stop())
	assert.Equal(t, StatusStopped, pool.Status())
}

func TestStatsConcurrency(t *testing.T) {
	pool, err := NewPool(Config{Workers: 4})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = pool.Stats()
			_ = pool.Status()
		}()
		go func(id int) {
			defer wg.Done()
			_ = pool.Submit(Task{
				ID: id,
				Execute: func(ctx context.Context) (Result, error) {
					time.Sleep(time.Millisecond)
					return Result{ID: id}, nil
				},
			})
		}(i)
	}
	wg.Wait()

	results, err := pool.Wait()
	require.NoError(t, err)
	assert.Len(t, results, 10)
}
