// Package safety
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Build-time switch for runtime access checks on shared buffers.
//
// Checks are on by default. Building with -tags dualview_release turns
// Enabled into a false constant, letting the compiler drop every guarded
// branch: release builds trade misuse detection for zero overhead, and
// unsafe access becomes an invariant enforced only by tests.
package safety
