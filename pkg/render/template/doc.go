// Package template defines the engine seam used by template-backed renderers.
// Implementations live in subpackages (see template/pongo).
package template
