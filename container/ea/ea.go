/*
NAME
  ea.go

DESCRIPTION
  ea.go implements the EA "SCHl/SCCl/SCDl/SCEl" chunked MicroTalk
  container used by the FIFA-era titles: a header chunk carrying PT
  metadata, followed by one or more data chunks each independently
  bit-aligned, terminated by an end chunk.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ea reads the EA SCHl/SCCl/SCDl/SCEl MicroTalk container.
package ea

import (
	"io"

	"github.com/pkg/errors"

	"github.com/niotso/utk/codec/utk"
	"github.com/niotso/utk/container/eachunk"
)

const (
	keyCodecRevision   = 0x80
	keyCompressionType = 0xA0
	keyNumSamples      = 0x85

	// ptID is the SCHl header's leading id field masked to its low 16
	// bits: the ASCII bytes "PT" (the high 16 bits, nominally zero, are
	// not checked by the reference reader either).
	ptID = uint32('P') | uint32('T')<<8
)

// Header describes one EA stream: how many samples it decodes to, its
// compression type, and the codec revision used to encode it.
type Header struct {
	NumSamples      int
	CompressionType uint32
	CodecRevision   uint32
}

// Reader decodes an EA MicroTalk stream: an SCHl header chunk followed
// by an SCCl chunk declaring the data-chunk count, then that many
// SCDl data chunks, and a trailing SCEl chunk.
type Reader struct {
	r             io.Reader
	Header        Header
	numDataChunks int
	state         *utk.DecoderState
}

// NewReader reads the SCHl header chunk and the SCCl chunk that
// follows it (declaring how many SCDl chunks the stream carries) and
// returns a Reader ready to produce decoded samples via Decode.
func NewReader(r io.Reader, params utk.StreamParams) (*Reader, error) {
	c, err := eachunk.ReadChunk(r)
	if err != nil {
		return nil, errors.Wrap(err, "ea: reading header chunk")
	}
	if c.TypeString() != "SCHl" {
		return nil, errors.Errorf("ea: expected SCHl chunk, got %q", c.TypeString())
	}

	id, err := c.ReadU32()
	if err != nil {
		return nil, errors.Wrap(err, "ea: reading SCHl id field")
	}
	if id&0xffff != ptID {
		return nil, errors.Errorf("ea: expected PT id in SCHl header, got 0x%04x", id&0xffff)
	}

	meta, err := c.ReadCommandMetadata()
	if err != nil {
		return nil, errors.Wrap(err, "ea: reading SCHl metadata")
	}

	h := Header{
		NumSamples:      int(meta[keyNumSamples]),
		CompressionType: meta[keyCompressionType],
		CodecRevision:   meta[keyCodecRevision],
	}
	if h.CompressionType != 4 && h.CompressionType != 22 {
		return nil, errors.Errorf("ea: invalid compression type %d (expected 4 for MicroTalk 10:1 or 22 for MicroTalk 5:1)", h.CompressionType)
	}
	if !utk.SupportsRevision(int(h.CodecRevision)) {
		return nil, errors.Wrapf(utk.ErrUnsupportedRevision, "ea: codec_revision %d", h.CodecRevision)
	}

	sccl, err := eachunk.ReadChunk(r)
	if err != nil {
		return nil, errors.Wrap(err, "ea: reading SCCl chunk")
	}
	if sccl.TypeString() != "SCCl" {
		return nil, errors.Errorf("ea: expected SCCl chunk, got %q", sccl.TypeString())
	}
	numDataChunks, err := sccl.ReadU32()
	if err != nil {
		return nil, errors.Wrap(err, "ea: reading num_data_chunks")
	}

	return &Reader{r: r, Header: h, numDataChunks: int(numDataChunks), state: utk.NewDecoderState(params)}, nil
}

// Decode reads the stream's SCDl data chunks, producing
// Header.NumSamples 16-bit PCM samples, then consumes the trailing
// SCEl chunk. Each SCDl chunk declares its own sample count (short-
// counting the stream's final frame the way utkdecode-fifa.c does)
// and carries an unused 4-byte field and an unused 1-byte field ahead
// of its bitstream payload; both are read and discarded without
// interpretation, matching the one retained decoder's own treatment
// of them.
func (d *Reader) Decode(w io.Writer) error {
	produced := 0
	for i := 0; i < d.numDataChunks; i++ {
		c, err := eachunk.ReadChunk(d.r)
		if err != nil {
			return errors.Wrap(err, "ea: reading SCDl chunk")
		}
		if c.TypeString() != "SCDl" {
			return errors.Errorf("ea: expected SCDl chunk, got %q", c.TypeString())
		}

		chunkSamples, err := c.ReadU32()
		if err != nil {
			return errors.Wrap(err, "ea: reading SCDl sample count")
		}
		if _, err := c.ReadU32(); err != nil {
			return errors.Wrap(err, "ea: reading SCDl unused field")
		}
		if _, err := c.ReadU8(); err != nil {
			return errors.Wrap(err, "ea: reading SCDl unused byte")
		}
		if remaining := d.Header.NumSamples - produced; int(chunkSamples) > remaining {
			chunkSamples = uint32(remaining)
		}

		body, err := c.ReadBytes(c.Remaining())
		if err != nil {
			return errors.Wrap(err, "ea: reading SCDl payload")
		}
		br := utk.NewBitReader(body)

		left := int(chunkSamples)
		for left > 0 {
			frame, err := d.state.DecodeFrame(br)
			if err != nil {
				return errors.Wrap(err, "ea: decoding frame")
			}
			n := len(frame)
			if n > left {
				n = left
			}
			if _, err := w.Write(utk.SamplesToPCM(frame[:n])); err != nil {
				return errors.Wrap(err, "ea: writing PCM output")
			}
			produced += n
			left -= n
		}
	}

	end, err := eachunk.ReadChunk(d.r)
	if err != nil {
		return errors.Wrap(err, "ea: reading SCEl chunk")
	}
	if end.TypeString() != "SCEl" {
		return errors.Errorf("ea: expected SCEl chunk, got %q", end.TypeString())
	}
	if produced != d.Header.NumSamples {
		return errors.Errorf("ea: decoded %d samples, expected %d", produced, d.Header.NumSamples)
	}
	return nil
}
