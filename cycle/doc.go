// Package cycle
// Author: momentics <momentics@gmail.com>
//
// The per-tick pipeline over a pair of instance batches (transforms and
// colors): wait for last tick's tasks, draw through the friendly view,
// schedule the next round of tasks through the task view, hand the combined
// token to the touched batches' gates. Even ticks shift colors, odd ticks
// jitter positions. Placement changes of the whole group are applied as
// rigid updates chained ahead of the position tasks.
package cycle
