// Package vmap provides parsers for the vmap collision/navigation file
// formats: tile spawn files (.vmtile), tile index files (.vmtidx), world
// model geometry files (.vmo) and terrain height/hole files (.map).
//
// All parsers are pure functions over whole in-memory byte buffers. A decode
// either yields a fully populated structure or a single error; there are no
// partial results. Embedded acceleration trees are skipped byte-exactly but
// never interpreted.
package vmap

import "errors"

// Shared format errors.
var (
	ErrBadMagic          = errors.New("unrecognized file magic")
	ErrBadVersion        = errors.New("unsupported format version")
	ErrChunkTooSmall     = errors.New("chunk declared size too small")
	ErrUnexpectedChunk   = errors.New("unexpected chunk tag")
	ErrUnexpectedEOF     = errors.New("unexpected end of data")
	ErrBadHeightEncoding = errors.New("unrecognized height encoding flags")
)
