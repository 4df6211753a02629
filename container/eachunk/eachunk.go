/*
NAME
  eachunk.go

DESCRIPTION
  eachunk.go implements the chunk and varint primitives shared by the
  EA SCHl/SCCl/SCDl/SCEl container and the Beasts & Bumpkins PT
  container: a type-tagged, length-prefixed block, and a stream of
  (key, value) metadata pairs terminated by a 0xFF key.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package eachunk implements the generic chunked-TLV container format
// shared by the EA and Beasts & Bumpkins audio wrappers.
package eachunk

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxChunkBody bounds a chunk's body size the way the reference reader's
// static 4096-byte buffer did; MicroTalk's own chunk sizes never
// approach this, so exceeding it indicates a corrupt or foreign file.
const maxChunkBody = 4096

// Chunk is one fully-buffered chunk: a 4-byte ASCII type tag and its
// body, with a read cursor for the chunk_read_* style accessors.
type Chunk struct {
	Type [4]byte
	Data []byte

	off int
}

// ReadChunk reads one chunk header (4-byte type + 4-byte little-endian
// total size, size including the 8-byte header) and its body from r.
func ReadChunk(r io.Reader) (*Chunk, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errors.Wrap(err, "eachunk: reading chunk header")
	}

	size := binary.LittleEndian.Uint32(hdr[4:8])
	if size < 8 {
		return nil, errors.Errorf("eachunk: chunk %q declares size %d smaller than its own header", hdr[:4], size)
	}
	bodyLen := size - 8
	if bodyLen > maxChunkBody {
		return nil, errors.Errorf("eachunk: chunk %q body %d bytes exceeds %d-byte bound", hdr[:4], bodyLen, maxChunkBody)
	}

	c := &Chunk{Data: make([]byte, bodyLen)}
	copy(c.Type[:], hdr[:4])
	if _, err := io.ReadFull(r, c.Data); err != nil {
		return nil, errors.Wrapf(err, "eachunk: reading %q chunk body", c.Type)
	}
	return c, nil
}

// TypeString returns the chunk's 4-byte type tag as a string, for
// comparisons and error messages.
func (c *Chunk) TypeString() string { return string(c.Type[:]) }

// ReadU8 reads one byte from the chunk's cursor.
func (c *Chunk) ReadU8() (byte, error) {
	if c.off >= len(c.Data) {
		return 0, errors.Wrapf(io.ErrUnexpectedEOF, "eachunk: reading u8 from %q", c.Type)
	}
	b := c.Data[c.off]
	c.off++
	return b, nil
}

// ReadU32 reads a little-endian 32-bit value from the chunk's cursor.
func (c *Chunk) ReadU32() (uint32, error) {
	if c.off+4 > len(c.Data) {
		return 0, errors.Wrapf(io.ErrUnexpectedEOF, "eachunk: reading u32 from %q", c.Type)
	}
	v := binary.LittleEndian.Uint32(c.Data[c.off : c.off+4])
	c.off += 4
	return v, nil
}

// ReadBytes reads n raw bytes from the chunk's cursor, for fields
// whose value is carried but never interpreted.
func (c *Chunk) ReadBytes(n int) ([]byte, error) {
	if c.off+n > len(c.Data) {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "eachunk: reading %d bytes from %q", n, c.Type)
	}
	b := c.Data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadVarInt reads a varint: a 1-byte length (at most 4) followed by
// that many bytes interpreted as a big-endian unsigned integer.
func (c *Chunk) ReadVarInt() (uint32, error) {
	n, err := c.ReadU8()
	if err != nil {
		return 0, err
	}
	if n > 4 {
		return 0, errors.Errorf("eachunk: varint length %d exceeds 4 bytes", n)
	}
	var v uint32
	for i := byte(0); i < n; i++ {
		b, err := c.ReadU8()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// Remaining reports how many unread bytes remain in the chunk body.
func (c *Chunk) Remaining() int { return len(c.Data) - c.off }

// ReadCommandMetadata walks the command-byte stream that precedes a
// PT/SCHl chunk's (key, value) metadata: each command byte is either
// 0xFD, marking the start of the metadata stream proper (consumed by
// ReadMetadata), or some other value whose associated varint argument
// is skipped.
func (c *Chunk) ReadCommandMetadata() (map[byte]uint32, error) {
	for {
		cmd, err := c.ReadU8()
		if err != nil {
			return nil, errors.Wrap(err, "eachunk: reading command byte")
		}
		if cmd == 0xFD {
			return c.ReadMetadata()
		}
		if _, err := c.ReadVarInt(); err != nil {
			return nil, errors.Wrapf(err, "eachunk: skipping command 0x%02x argument", cmd)
		}
	}
}

// ReadMetadata walks a (key, varint-value) metadata stream up to and
// including a terminating key of 0xFF, returning the collected pairs.
func (c *Chunk) ReadMetadata() (map[byte]uint32, error) {
	meta := make(map[byte]uint32)
	for {
		key, err := c.ReadU8()
		if err != nil {
			return nil, errors.Wrap(err, "eachunk: reading metadata key")
		}
		if key == 0xFF {
			return meta, nil
		}
		value, err := c.ReadVarInt()
		if err != nil {
			return nil, errors.Wrapf(err, "eachunk: reading metadata value for key 0x%02x", key)
		}
		meta[key] = value
	}
}
