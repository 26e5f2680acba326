// Package health tracks per ad network load outcomes. It is informational:
// an unhealthy network is still asked to load.
package health

import (
	"sync"
	"time"
)

// Status 单个广告网络的健康状态
type Status struct {
	Healthy      bool      `json:"healthy"`
	FailureCount int       `json:"failure_count"`
	SuccessCount int       `json:"success_count"`
	LastCheck    time.Time `json:"last_check"`
	LastError    string    `json:"last_error,omitempty"`
}

// Checker 按网络名统计加载结果
type Checker struct {
	failureThreshold int
	successThreshold int
	now              func() time.Time

	mu     sync.RWMutex
	status map[string]*Status
}

// NewChecker 创建健康检查器; thresholds below one are raised to one.
func NewChecker(failureThreshold, successThreshold int) *Checker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &Checker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		now:              time.Now,
		status:           make(map[string]*Status),
	}
}

// Record 记录一次结果. A nil err counts as success.
func (c *Checker) Record(network string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, exists := c.status[network]
	if !exists {
		status = &Status{Healthy: true}
		c.status[network] = status
	}
	status.LastCheck = c.now()

	if err == nil {
		status.SuccessCount++
		status.FailureCount = 0
		status.LastError = ""
		if status.SuccessCount >= c.successThreshold {
			status.Healthy = true
		}
		return
	}

	status.FailureCount++
	status.SuccessCount = 0
	status.LastError = err.Error()
	if status.FailureCount >= c.failureThreshold {
		status.Healthy = false
	}
}

// IsHealthy 未记录过的网络默认健康
func (c *Checker) IsHealthy(network string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status, exists := c.status[network]
	if !exists {
		return true
	}
	return status.Healthy
}

// Get returns a copy of the status of network.
func (c *Checker) Get(network string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status, exists := c.status[network]
	if !exists {
		return Status{Healthy: true}
	}
	return *status
}

// All 返回所有状态的副本
func (c *Checker) All() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Status, len(c.status))
	for network, status := range c.status {
		result[network] = *status
	}
	return result
}

// CleanupStale 清理过期的状态
func (c *Checker) CleanupStale(staleDuration time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for network, status := range c.status {
		if now.Sub(status.LastCheck) > staleDuration {
			delete(c.status, network)
			removed++
		}
	}
	return removed
}
