// Package render
// Author: momentics <momentics@gmail.com>
//
// Shader property ids and the headless reference renderer.
package render
