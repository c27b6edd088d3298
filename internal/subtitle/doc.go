// Package subtitle wraps caption text to a width budget and reads/writes the
// SRT interchange format.
//
// Widths are expressed in full-width units: ASCII and half-width forms count
// 0.5, every other script counts 1.0. Line breaking follows Japanese kinsoku
// conventions by default (no line may start with closing punctuation or end
// with an opening bracket), with the rule tables injectable for other
// languages. Formatting never alters the text itself: joining the produced
// lines always reproduces the input.
package subtitle
