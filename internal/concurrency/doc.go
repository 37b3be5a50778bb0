// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker pool and data-parallel job scheduling for dualview.
//
// Executor runs submitted closures on a fixed set of worker goroutines fed
// by a lock-free MPMC ring with a locked overflow queue behind it. Jobs
// layers api.Scheduler on top: index ranges are cut into inner batches,
// completion is counted per token, and dependent work is released by the
// worker that finishes the last batch of its prior.
package concurrency
