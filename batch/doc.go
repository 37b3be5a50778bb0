// Package batch
// Author: momentics <momentics@gmail.com>
//
// Partitioning of a logical per-instance collection into fixed-capacity
// chunks, each backed by its own sharedarray.Array. Chunk capacity matches
// the renderer's per-call instance limit (1023 by default).
package batch
