// Package shared holds code used by several regpulse packages without
// belonging to any of them. Today that is the testutil subpackage: a
// buffered slog handler for log assertions and registration CSV fixtures.
package shared
