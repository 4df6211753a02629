/*
NAME
  bitio.go

DESCRIPTION
  bitio.go implements the LSB-first bit reader and writer that the
  MicroTalk frame format is built on. Byte boundaries in the wire
  format are purely a storage detail; the first bit written is always
  the least-significant bit of the first byte.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package utk

import (
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/niotso/utk/codec/codecutil"
)

// Log is a package-level logger that callers may set. The codec itself
// does not write any messages to it.
var Log logging.Logger

// maxReadBits is the largest width a single Read or Write call may
// use; wider values don't fit in the uint32 accumulator used while
// straddling byte boundaries and are not needed by any MicroTalk
// field (the widest fields are the 16-bit Huffman model 0 codes for
// the symbols -13 and +13).
const maxReadBits = 16

// BitReader reads LSB-first bit fields, either from an in-memory
// buffer ("buffered mode", used by the EA container reader where each
// SCDl chunk body is its own bit-aligned span) or from a streamed
// source backed by a codecutil.ByteScanner ("streamed mode", used for
// UTM0 and BNB, whose bitstream runs on to the end of the input).
type BitReader struct {
	buf     []byte
	pos     int
	scanner *codecutil.ByteScanner

	cur   byte
	nbits uint
	have  bool

	bitPos int
}

// NewBitReader returns a BitReader over a fully-buffered byte slice.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{buf: data}
}

// NewStreamedBitReader returns a BitReader that pulls bytes on demand
// from r, refilling a 4096-byte window as needed.
func NewStreamedBitReader(r io.Reader) *BitReader {
	return &BitReader{scanner: codecutil.NewByteScanner(r, make([]byte, 4096))}
}

func (r *BitReader) nextByte() (byte, error) {
	if r.scanner != nil {
		b, err := r.scanner.ReadByte()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return b, err
	}
	if r.pos >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Read consumes the next n bits (1 <= n <= 16) and returns them as an
// unsigned integer whose bit i equals the i-th consumed bit.
func (r *BitReader) Read(n uint) (uint32, error) {
	if n < 1 || n > maxReadBits {
		return 0, errors.Errorf("utk: invalid bit width %d", n)
	}
	var value uint32
	var got uint
	for got < n {
		if !r.have {
			b, err := r.nextByte()
			if err != nil {
				return 0, errors.Wrap(err, "utk: bit reader underrun")
			}
			r.cur = b
			r.nbits = 0
			r.have = true
		}
		avail := 8 - r.nbits
		take := n - got
		if take > avail {
			take = avail
		}
		mask := uint32(1)<<take - 1
		bits := (uint32(r.cur) >> r.nbits) & mask
		value |= bits << got
		got += take
		r.nbits += take
		if r.nbits == 8 {
			r.have = false
		}
	}
	r.bitPos += int(n)
	return value, nil
}

// BitPosition reports the reader's total bit offset since creation.
func (r *BitReader) BitPosition() int { return r.bitPos }

// BitWriter packs LSB-first bit fields into a growable byte buffer.
type BitWriter struct {
	buf     []byte
	partial uint32
	nbits   uint
}

// NewBitWriter returns an empty BitWriter.
func NewBitWriter() *BitWriter {
	return &BitWriter{buf: make([]byte, 0, 64)}
}

// Write packs the low n bits (1 <= n <= 16) of value, LSB-first.
func (w *BitWriter) Write(value uint32, n uint) {
	w.partial |= (value & (uint32(1)<<n - 1)) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.buf = append(w.buf, byte(w.partial))
		w.partial >>= 8
		w.nbits -= 8
	}
}

// PadToByte zero-pads and promotes any pending partial byte.
func (w *BitWriter) PadToByte() {
	if w.nbits != 0 {
		w.buf = append(w.buf, byte(w.partial))
		w.partial = 0
		w.nbits = 0
	}
}

// BitPosition reports the writer's current total bit offset, pending
// partial byte included.
func (w *BitWriter) BitPosition() int {
	return len(w.buf)*8 + int(w.nbits)
}

// FlushFullBytes writes every fully-packed byte to sink; any pending
// partial byte is retained and becomes the new byte 0.
func (w *BitWriter) FlushFullBytes(sink io.Writer) (int, error) {
	n, err := sink.Write(w.buf)
	w.buf = w.buf[:0]
	if err != nil {
		return n, errors.Wrap(err, "utk: bit writer flush")
	}
	return n, nil
}

// Bytes returns the fully-packed bytes written so far, excluding any
// pending partial byte.
func (w *BitWriter) Bytes() []byte { return w.buf }

// fork returns a new BitWriter that begins with w's pending partial
// bits already loaded, for trial-encoding alternative continuations
// (the innovation codec tries several gains and keeps the best one).
func (w *BitWriter) fork() *BitWriter {
	return &BitWriter{
		buf:     make([]byte, 0, 32),
		partial: w.partial,
		nbits:   w.nbits,
	}
}

// absorb replaces w's tail with the contents of a forked writer nw,
// committing whichever trial encoding was chosen.
func (w *BitWriter) absorb(nw *BitWriter) {
	w.buf = append(w.buf, nw.buf...)
	w.partial = nw.partial
	w.nbits = nw.nbits
}
