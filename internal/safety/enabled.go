//go:build !dualview_release

// File: internal/safety/enabled.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package safety

// Enabled reports whether access checks are compiled in.
const Enabled = true
