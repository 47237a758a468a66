// SPDX-License-Identifier: MIT

package health

import "context"

// PingFunc probes a dependency; a nil error means reachable.
type PingFunc func(ctx context.Context) error

// PingChecker adapts a PingFunc (sql.DB.PingContext, redis HealthCheck) to a Checker.
type PingChecker struct {
	name string
	ping PingFunc
	// degradeOnly marks failures as degraded instead of unhealthy.
	degradeOnly bool
}

// NewPingChecker returns a checker that reports unhealthy when ping fails.
func NewPingChecker(name string, ping PingFunc) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

// NewOptionalPingChecker returns a checker that reports degraded when ping fails.
func NewOptionalPingChecker(name string, ping PingFunc) *PingChecker {
	return &PingChecker{name: name, ping: ping, degradeOnly: true}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if c.ping == nil {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	if err := c.ping(ctx); err != nil {
		status := StatusUnhealthy
		if c.degradeOnly {
			status = StatusDegraded
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// Prober reports whether the object store container is reachable.
type Prober interface {
	Exists(ctx context.Context) (bool, error)
}

// ObjectStoreChecker checks the object store with Exists.
type ObjectStoreChecker struct {
	store Prober
}

// NewObjectStoreChecker creates a checker for the object store.
func NewObjectStoreChecker(store Prober) *ObjectStoreChecker {
	return &ObjectStoreChecker{store: store}
}

func (c *ObjectStoreChecker) Name() string { return "object_store" }

func (c *ObjectStoreChecker) Check(ctx context.Context) CheckResult {
	ok, err := c.store.Exists(ctx)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !ok {
		return CheckResult{Status: StatusUnhealthy, Message: "container not found"}
	}
	return CheckResult{Status: StatusHealthy, Message: "container accessible"}
}
