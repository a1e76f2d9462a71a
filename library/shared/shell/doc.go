// Package shell holds the infrastructure shared by the feature slices: the command contract,
// retry on concurrency conflicts, HandlerResult and the observability helpers used by the
// command wrapper and the scheduler.
//
// In hexagonal architecture terms this is the "imperative shell" around the pure core package.
package shell
