/*
NAME
  bnb.go

DESCRIPTION
  bnb.go implements the Beasts & Bumpkins single-chunk "PT" MicroTalk
  container: one PT chunk carrying metadata followed immediately by
  the whole bitstream, with no per-frame chunking.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bnb reads the Beasts & Bumpkins PT MicroTalk container.
package bnb

import (
	"io"

	"github.com/pkg/errors"

	"github.com/niotso/utk/codec/utk"
	"github.com/niotso/utk/container/eachunk"
)

const (
	keyCompressionType = 0x83
	keyNumSamples      = 0x85

	wantCompressionType = 9 // Beasts & Bumpkins M10 uses compression type 9 exclusively.
)

// Header describes one BNB PT stream.
type Header struct {
	NumSamples      int
	CompressionType uint32
}

// Reader decodes a Beasts & Bumpkins PT MicroTalk stream. Unlike EA's
// SCDl chunks, the PT chunk carries only the header metadata; the
// bitstream itself follows immediately in the underlying stream,
// outside of any further chunk framing.
type Reader struct {
	r     io.Reader
	state *utk.DecoderState
	Header
}

// NewReader reads the single PT chunk, validating that its compression
// type is 9 (the only type Beasts & Bumpkins ever used).
func NewReader(r io.Reader, params utk.StreamParams) (*Reader, error) {
	c, err := eachunk.ReadChunk(r)
	if err != nil {
		return nil, errors.Wrap(err, "bnb: reading PT chunk")
	}
	if c.Type[0] != 'P' || c.Type[1] != 'T' {
		return nil, errors.Errorf("bnb: expected PT chunk, got %q", c.TypeString())
	}

	meta, err := c.ReadCommandMetadata()
	if err != nil {
		return nil, errors.Wrap(err, "bnb: reading PT metadata")
	}

	h := Header{
		NumSamples:      int(meta[keyNumSamples]),
		CompressionType: meta[keyCompressionType],
	}
	if h.CompressionType != wantCompressionType {
		return nil, errors.Errorf("bnb: compression_type %d, want %d", h.CompressionType, wantCompressionType)
	}

	return &Reader{r: r, state: utk.NewDecoderState(params), Header: h}, nil
}

// Decode streams the bitstream that follows the PT chunk directly
// from the underlying reader as one continuous span, producing
// Header.NumSamples 16-bit PCM samples.
func (d *Reader) Decode(w io.Writer) error {
	br := utk.NewStreamedBitReader(d.r)

	produced := 0
	for produced < d.NumSamples {
		frame, err := d.state.DecodeFrame(br)
		if err != nil {
			return errors.Wrap(err, "bnb: decoding frame")
		}
		n := len(frame)
		if remaining := d.NumSamples - produced; n > remaining {
			n = remaining
		}
		if _, err := w.Write(utk.SamplesToPCM(frame[:n])); err != nil {
			return errors.Wrap(err, "bnb: writing PCM output")
		}
		produced += n
	}
	return nil
}
