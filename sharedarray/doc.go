// Package sharedarray
// Author: momentics <momentics@gmail.com>
//
// Dual-view buffers: one pinned allocation exposed as []A for sequential
// code and as []B for parallel tasks, with no copying between the two.
//
// Construction proves the layouts compatible (equal size and alignment, an
// address aligned for both, no pointers in either type) and fails with
// api.ErrConfiguration otherwise. Each Array owns a gate.Gate; in default
// builds direct views panic or fail while scheduled tasks still hold the
// memory, under -tags dualview_release those checks compile away.
//
// Views are borrowed: they stay valid until the next Resize or Dispose.
package sharedarray
