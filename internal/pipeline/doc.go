// Package pipeline provides a framework for executing navigation steps in
// sequence.
//
// A portal workflow is a fixed chain of requests where every step depends on
// the state produced by the previous one (cookies, referer, discovered paths).
// Each stage is implemented as a Step that receives the shared
// model.NavigationContext and advances it.
//
// Execution is fail-fast. BatchProcessor runs independent profiles with
// concurrency control using errgroup.
package pipeline
