// Package jobs
// Author: momentics <momentics@gmail.com>
//
// Per-element transformation tasks. Each job is a small value type holding
// the B view it writes and the scalars it needs; Execute(i) touches element
// i only, so any index range may run on any worker.
package jobs
