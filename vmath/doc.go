// Package vmath
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Float32 element types for instanced transform and color buffers.
//
// Every type comes in two flavours with identical size and alignment:
//   - friendly, named-field types (Matrix4x4, Vector4) used by sequential code
//     and handed to renderers;
//   - lane-oriented types (Float4x4, Float4) used by parallel per-element tasks.
//
// The pairs are layout-compatible so a single pinned allocation can be viewed
// as either, see package sharedarray.
package vmath
