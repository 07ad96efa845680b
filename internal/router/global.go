package router

import "sync"

var (
	shared     *Router
	sharedOnce sync.Once
)

// Shared returns the process-wide router used for cross-cutting subscribers
// (task-progress aggregation and similar concerns that must see traffic from
// every connection). It is not owned by any single connection; its lifetime
// is the lifetime of the process. Each connection dispatches every inbound
// message to it exactly once, after its own router.
func Shared() *Router {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}
