package concurrent

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Result 泛型结果类型, Index 对应任务在输入切片中的位置
type Result[T any] struct {
	Index int
	Value T
	Error error
}

// Task 泛型任务类型
type Task[T any] func(ctx context.Context) (T, error)

// ConcurrencyController 并发控制器
type ConcurrencyController struct {
	semaphore chan struct{} // 信号量控制并发数
}

// NewConcurrencyController 创建并发控制器
func NewConcurrencyController(maxConcurrency int) *ConcurrencyController {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ConcurrencyController{
		semaphore: make(chan struct{}, maxConcurrency),
	}
}

// ExecuteWithTimeout 执行带超时的并发任务
// 返回的结果按任务下标排序; 超时的任务不会出现在结果中, 此时 error 为 context.DeadlineExceeded
func ExecuteWithTimeout[T any](
	c *ConcurrencyController,
	ctx context.Context,
	tasks []Task[T],
	timeout time.Duration,
) ([]Result[T], error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wg sync.WaitGroup
	resultChan := make(chan Result[T], len(tasks))

	for i, task := range tasks {
		wg.Add(1)
		go executeTask(c, timeoutCtx, &wg, i, task, resultChan)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	slots := make([]*Result[T], len(tasks))
	collected := 0
collect:
	for collected < len(tasks) {
		select {
		case result, ok := <-resultChan:
			if !ok {
				break collect
			}
			slots[result.Index] = &result
			collected++
		case <-timeoutCtx.Done():
			break collect
		}
	}

	results := make([]Result[T], 0, collected)
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}

	if collected < len(tasks) && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return results, timeoutCtx.Err()
	}
	return results, nil
}

// executeTask 执行单个任务
func executeTask[T any](
	c *ConcurrencyController,
	ctx context.Context,
	wg *sync.WaitGroup,
	taskID int,
	task Task[T],
	resultChan chan<- Result[T],
) {
	defer wg.Done()

	select {
	case c.semaphore <- struct{}{}:
	case <-ctx.Done():
		resultChan <- Result[T]{Index: taskID, Error: ctx.Err()}
		return
	}
	defer func() { <-c.semaphore }()

	value, err := task(ctx)
	resultChan <- Result[T]{
		Index: taskID,
		Value: value,
		Error: err,
	}
}

// BatchProcessor 批量处理器
type BatchProcessor[T any] struct {
	batchSize   int
	processFunc func([]T)
	buffer      []T
	mu          sync.Mutex
	wg          sync.WaitGroup
}

// NewBatchProcessor 创建批量处理器
func NewBatchProcessor[T any](batchSize int, processFunc func([]T)) *BatchProcessor[T] {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BatchProcessor[T]{
		batchSize:   batchSize,
		processFunc: processFunc,
		buffer:      make([]T, 0, batchSize),
	}
}

// Add 添加项目到批量处理器
func (bp *BatchProcessor[T]) Add(item T) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.buffer = append(bp.buffer, item)
	if len(bp.buffer) >= bp.batchSize {
		bp.flush()
	}
}

// Flush 强制刷新缓冲区
func (bp *BatchProcessor[T]) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if len(bp.buffer) > 0 {
		bp.flush()
	}
}

// Wait 等待所有已提交批次处理完成
func (bp *BatchProcessor[T]) Wait() {
	bp.wg.Wait()
}

// flush 内部刷新方法
func (bp *BatchProcessor[T]) flush() {
	batch := make([]T, len(bp.buffer))
	copy(batch, bp.buffer)

	bp.wg.Add(1)
	go func() {
		defer bp.wg.Done()
		bp.processFunc(batch)
	}()

	bp.buffer = bp.buffer[:0]
}
