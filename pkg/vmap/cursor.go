// Package vmap provides parsers for the vmap collision/navigation file formats.
package vmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	vmath "github.com/wowemu/vmapview/pkg/math"
)

// Cursor is a sequential little-endian reader over an in-memory buffer.
// It borrows the buffer read-only; the position always stays within
// [0, len(buffer)] and any read that would cross the end fails with
// ErrUnexpectedEOF without advancing.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor creates a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// HasRemaining reports whether at least n unread bytes remain.
func (c *Cursor) HasRemaining(n int) bool {
	return c.Remaining() >= n
}

// need fails if fewer than n bytes remain.
func (c *Cursor) need(n int) error {
	if c.pos+n > len(c.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrUnexpectedEOF, n, c.pos, c.Remaining())
	}
	return nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadU16 reads a little-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI32 reads a little-endian int32.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 single-precision float.
func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadVec3 reads three consecutive floats as X, Y, Z.
func (c *Cursor) ReadVec3() (vmath.Vec3, error) {
	if err := c.need(12); err != nil {
		return vmath.Vec3{}, err
	}
	var v vmath.Vec3
	v.X = math.Float32frombits(binary.LittleEndian.Uint32(c.data[c.pos:]))
	v.Y = math.Float32frombits(binary.LittleEndian.Uint32(c.data[c.pos+4:]))
	v.Z = math.Float32frombits(binary.LittleEndian.Uint32(c.data[c.pos+8:]))
	c.pos += 12
	return v, nil
}

// ReadBytes reads n raw bytes. The returned slice is a copy.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.data[c.pos:])
	c.pos += n
	return out, nil
}

// ReadFixedString reads n bytes and decodes them as UTF-8 with any trailing
// run of NUL padding stripped. Interior NUL bytes are preserved.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	if err := c.need(n); err != nil {
		return "", err
	}
	s := bytes.TrimRight(c.data[c.pos:c.pos+n], "\x00")
	c.pos += n
	return string(s), nil
}

// ReadString reads a u32 byte length followed by that many UTF-8 bytes.
// No NUL stripping is applied.
func (c *Cursor) ReadString() (string, error) {
	n, err := c.ReadU32()
	if err != nil {
		return "", err
	}
	if err := c.need(int(n)); err != nil {
		return "", err
	}
	s := string(c.data[c.pos : c.pos+int(n)])
	c.pos += int(n)
	return s, nil
}

// ReadTag reads a raw 4-byte ASCII chunk tag.
func (c *Cursor) ReadTag() (string, error) {
	if err := c.need(4); err != nil {
		return "", err
	}
	s := string(c.data[c.pos : c.pos+4])
	c.pos += 4
	return s, nil
}

// Skip advances the position by n bytes without reading.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Seek repositions the cursor to an absolute offset.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.data) {
		return fmt.Errorf("%w: seek to offset %d in %d-byte buffer",
			ErrUnexpectedEOF, off, len(c.data))
	}
	c.pos = off
	return nil
}
