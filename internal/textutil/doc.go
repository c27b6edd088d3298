// Package textutil provides text processing utilities for script cleanup and
// filename sanitization.
//
// The primary use cases are:
//   - Stripping lightweight markup (headers, emphasis) from narration scripts
//   - Sanitizing filenames and path segments for safe filesystem use
//   - Deriving stable output base names from free-form video titles
package textutil
