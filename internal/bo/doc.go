// Package bo provides native byte order selection.
//
// Implementation is architecture-specific via build tags where commonly known,
// and falls back to a portable runtime detection elsewhere.
package bo
