// Package constants centralizes defaults shared across the CLI.
//
// File permissions, request limits and the default User-Agent live here so
// cmd/ and internal/ reference the same values without import cycles.
package constants
