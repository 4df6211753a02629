/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the MicroTalk decoder core: unpacking one
  432-sample frame's reflection coefficients, per-subframe pitch and
  innovation fields, and running the adaptive-codebook and
  linear-prediction synthesis that reconstructs the waveform.

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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// DecodeFrame reads one 432-sample frame from r, advances the
// decoder's adaptive codebook and RC/LPC history, and returns the
// reconstructed samples.
func (d *DecoderState) DecodeFrame(r *BitReader) ([frameSize]float32, error) {
	var out [frameSize]float32
	var rc [lpcOrder]float32
	useHuffman := false

	for i := 0; i < 4; i++ {
		idx, err := r.Read(6)
		if err != nil {
			return out, errors.Wrap(err, "utk: reading coarse RC index")
		}
		rc[i] = rcTable[idx]
		if i == 0 && int(idx) < d.params.HuffmanThreshold {
			useHuffman = true
		}
	}
	for i := 4; i < lpcOrder; i++ {
		idx, err := r.Read(5)
		if err != nil {
			return out, errors.Wrap(err, "utk: reading fine RC index")
		}
		rc[i] = rcTable[16+idx]
	}

	var rcDelta [lpcOrder]float32
	for i := 0; i < lpcOrder; i++ {
		rcDelta[i] = (rc[i] - d.prevRC[i]) / 4.0
	}
	cur := d.prevRC

	for sub := 0; sub < 4; sub++ {
		for j := 0; j < lpcOrder; j++ {
			cur[j] += rcDelta[j]
		}
		lpc := rcToLPC(cur)

		lagCode, err := r.Read(8)
		if err != nil {
			return out, errors.Wrap(err, "utk: reading pitch lag")
		}
		pitchLag := int(lagCode) + 108
		if pitchLag > 323 {
			pitchLag = 323
		}

		gainCode, err := r.Read(4)
		if err != nil {
			return out, errors.Wrap(err, "utk: reading pitch gain")
		}
		pitchGain := float32(gainCode) / 15.0

		innov, err := decodeInnovation(r, d.params.HalvedInnovation, useHuffman, d.params.gains)
		if err != nil {
			return out, errors.Wrap(err, "utk: decoding innovation")
		}

		excBase := 324 + subframeSize*sub
		for j := 0; j < subframeSize; j++ {
			histIdx := excBase + j - pitchLag
			d.adaptiveCodebook[excBase+j] = innov.at(j) + pitchGain*d.adaptiveCodebook[histIdx]
		}

		ext := make([]float32, lpcOrder+subframeSize)
		copy(ext[:lpcOrder], d.lpcHistory[:])
		for i := 0; i < subframeSize; i++ {
			var prediction float32
			for j := 0; j < lpcOrder; j++ {
				prediction += lpc[j] * ext[lpcOrder+i-1-j]
			}
			y := d.adaptiveCodebook[excBase+i] + prediction
			ext[lpcOrder+i] = y
			out[subframeSize*sub+i] = y
		}
		copy(d.lpcHistory[:], ext[len(ext)-lpcOrder:])
	}

	d.prevRC = cur
	copy(d.adaptiveCodebook[:324], d.adaptiveCodebook[frameSize:frameSize+324])

	return out, nil
}

// roundPCM16 rounds a float32 sample half-away-from-zero and clamps
// it to the int16 range, matching the reference decoder's ROUND/CLAMP
// macros.
func roundPCM16(x float32) int16 {
	v := roundHalfAway(x)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// SamplesToPCM converts a slice of float32 samples to little-endian
// 16-bit PCM bytes.
func SamplesToPCM(samples []float32) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(roundPCM16(s)))
	}
	return buf
}

// Decoder drives DecodeFrame over a bitstream to exhaustion, writing
// little-endian 16-bit PCM to an io.Writer and truncating the final
// frame to the stream's declared sample count.
type Decoder struct {
	state      *DecoderState
	r          *BitReader
	numSamples int
	produced   int
}

// NewDecoder returns a Decoder that will produce exactly numSamples
// samples from r using the given stream parameters.
func NewDecoder(r *BitReader, params StreamParams, numSamples int) *Decoder {
	return &Decoder{state: NewDecoderState(params), r: r, numSamples: numSamples}
}

// Decode writes PCM samples to w until numSamples have been produced
// or the bitstream is exhausted mid-frame (an error, since the
// declared sample count is a contract with the container header).
func (dec *Decoder) Decode(w io.Writer) error {
	for dec.produced < dec.numSamples {
		frame, err := dec.state.DecodeFrame(dec.r)
		if err != nil {
			return errors.Wrap(err, "utk: decoding frame")
		}
		remaining := dec.numSamples - dec.produced
		n := frameSize
		if remaining < n {
			n = remaining
		}
		if _, err := w.Write(SamplesToPCM(frame[:n])); err != nil {
			return errors.Wrap(err, "utk: writing decoded samples")
		}
		dec.produced += n
	}
	return nil
}
