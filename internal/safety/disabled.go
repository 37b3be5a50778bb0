//go:build dualview_release

// File: internal/safety/disabled.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package safety

// Enabled reports whether access checks are compiled in.
const Enabled = false
