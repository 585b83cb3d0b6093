package beacon

import (
	"context"
	"sync"
)

// HealthNode is implemented by API clients that can report whether the remote
// node is ready to serve requests.
type HealthNode interface {
	IsHealthy(ctx context.Context) bool
}

// NodeHealthTracker caches the last observed health status of a node and
// notifies a subscriber whenever the status flips.
type NodeHealthTracker struct {
	isHealthy  *bool
	healthChan chan bool
	node       HealthNode
	sync.RWMutex
}

func NewNodeHealthTracker(node HealthNode) *NodeHealthTracker {
	return &NodeHealthTracker{
		node:       node,
		healthChan: make(chan bool, 1),
	}
}

// HealthUpdates provides a read-only channel for health updates.
func (n *NodeHealthTracker) HealthUpdates() <-chan bool {
	return n.healthChan
}

// IsHealthy returns the last recorded status without polling the node.
// Before the first CheckHealth the node is reported unhealthy.
func (n *NodeHealthTracker) IsHealthy() bool {
	n.RLock()
	defer n.RUnlock()
	if n.isHealthy == nil {
		return false
	}
	return *n.isHealthy
}

// CheckHealth polls the node once and records the result. A transition in
// either direction is pushed to the updates channel, replacing any unread
// earlier update so the channel always carries the latest status.
func (n *NodeHealthTracker) CheckHealth(ctx context.Context) bool {
	n.Lock()
	defer n.Unlock()

	status := n.node.IsHealthy(ctx)
	if n.isHealthy == nil {
		n.isHealthy = &status
	}
	if status != *n.isHealthy {
		n.isHealthy = &status
		select {
		case <-n.healthChan:
		default:
		}
		n.healthChan <- status
	}
	return status
}
