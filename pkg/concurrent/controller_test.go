package concurrent

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithTimeoutOrdersResults(t *testing.T) {
	c := NewConcurrencyController(2)
	var running, peak int32

	tasks := make([]Task[int], 5)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			if i == 3 {
				return 0, errors.New("adapter 3 failed")
			}
			return i * 10, nil
		}
	}

	results, err := ExecuteWithTimeout(c, context.Background(), tasks, time.Second)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, 20, results[2].Value)
	assert.EqualError(t, results[3].Error, "adapter 3 failed")
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestExecuteWithTimeoutReportsDeadline(t *testing.T) {
	c := NewConcurrencyController(4)
	tasks := []Task[string]{
		func(ctx context.Context) (string, error) { return "fast", nil },
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return "slow", nil
		},
	}

	results, err := ExecuteWithTimeout(c, context.Background(), tasks, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, results, 1)
	assert.Equal(t, "fast", results[0].Value)
}

func TestBatchProcessor(t *testing.T) {
	var mu sync.Mutex
	var got []int
	bp := NewBatchProcessor(3, func(batch []int) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, batch...)
	})

	for i := 0; i < 7; i++ {
		bp.Add(i)
	}
	bp.Flush()
	bp.Wait()

	mu.Lock()
	defer mu.Unlock()
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, got)
}
