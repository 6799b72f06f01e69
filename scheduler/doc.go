// Package scheduler rate-limits work that should follow the render loop
// without running on every frame, such as metrics refresh.
//
// [Throttle] is a passive gate: the caller asks it whether enough time has
// passed. [Runner] owns a goroutine that coalesces [Runner.Trigger] calls and
// runs its job at most once per interval until the context is canceled.
package scheduler
