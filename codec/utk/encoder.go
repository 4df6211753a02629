/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements the MicroTalk encoder core: autocorrelation,
  Levinson-Durbin, reflection-coefficient quantization, the
  per-subframe pitch search and excitation/innovation encoding, and
  the frame driver that streams a PCM buffer into a UTM0 bitstream.

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

// quantize returns the index into alphabet[0:size] nearest to value,
// breaking ties toward the lower index.
func quantize(value float32, alphabet []float32) int {
	best := 0
	bestDist := abs32(value - alphabet[0])
	for i := 1; i < len(alphabet); i++ {
		d := abs32(value - alphabet[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// findExcitation runs the inverse LPC filter over length samples of
// source starting at base (source must have 12 samples of valid
// history before index base), writing the residual into excitation.
func findExcitation(excitation, source []float32, base, length int, lpc [lpcOrder]float32) {
	for i := 0; i < length; i++ {
		var prediction float32
		for j := 0; j < lpcOrder; j++ {
			prediction += lpc[j] * source[base+i-1-j]
		}
		excitation[i] = source[base+i] - prediction
	}
}

// findPitch performs the open-loop pitch search over lag in
// [108, 323] against the 324 samples of history preceding
// cb[base:base+108], returning the lag maximizing correlation and a
// clamped gain. Ties keep the earliest (smallest) lag, matching a
// strict ">" comparison during the search. cb must have at least 324
// samples of valid history before index base.
func findPitch(cb []float32, base int) (lag int, gain float32) {
	lag = 108
	var maxCorr float32
	for i := 108; i < 324; i++ {
		var corr float32
		for j := 0; j < subframeSize; j++ {
			corr += cb[base+j] * cb[base+j-i]
		}
		if corr > maxCorr {
			maxCorr = corr
			lag = i
		}
	}

	var historyEnergy float32
	for i := 0; i < subframeSize; i++ {
		v := cb[base+i-lag]
		historyEnergy += v * v
	}

	if historyEnergy >= degenerateThreshold {
		g := maxCorr / historyEnergy
		if g < 0 {
			g = 0
		} else if g > 1 {
			g = 1
		}
		return lag, g
	}
	return 108, 0
}

// EncodeFrame consumes exactly 432 samples (the caller zero-pads a
// short final frame) and writes one frame's worth of bits to w,
// advancing the encoder's adaptive codebook and RC history in place.
func (e *EncoderState) EncodeFrame(w *BitWriter, samples [frameSize]float32, targetBitsPerSubframe int) error {
	var input [lpcOrder + frameSize]float32
	copy(input[:lpcOrder], e.inputOverlap[:])
	copy(input[lpcOrder:], samples[:])

	rawRC := findRC(input[lpcOrder:])

	var rc [lpcOrder]float32
	useHuffman := false
	for i := 0; i < 4; i++ {
		idx := 1 + quantize(rawRC[i], rcTable[1:64])
		w.Write(uint32(idx), 6)
		rc[i] = rcTable[idx]
		if i == 0 && idx < e.params.HuffmanThreshold {
			useHuffman = true
		}
	}
	for i := 4; i < lpcOrder; i++ {
		idx := quantize(rawRC[i], rcTable[16:48])
		w.Write(uint32(idx), 5)
		rc[i] = rcTable[16+idx]
	}

	var rcDelta [lpcOrder]float32
	for i := 0; i < lpcOrder; i++ {
		rcDelta[i] = (rc[i] - e.prevRC[i]) / 4.0
	}
	cur := e.prevRC

	// Find the whole frame's excitation signal. This walks the same
	// quarter-subframe RC interpolation as the synthesis side, one
	// 108-sample subframe per step: each subframe's residual is
	// computed with that subframe's own interpolated LPC, the LPC the
	// decoder synthesizes that subframe with.
	for sub := 0; sub < 4; sub++ {
		for j := 0; j < lpcOrder; j++ {
			cur[j] += rcDelta[j]
		}
		lpc := rcToLPC(cur)

		destBase := 324 + subframeSize*sub
		srcBase := lpcOrder + subframeSize*sub
		findExcitation(e.adaptiveCodebook[destBase:destBase+subframeSize], input[:], srcBase, subframeSize, lpc)
	}

	copy(e.inputOverlap[:], samples[frameSize-lpcOrder:])
	e.prevRC = cur

	for sub := 0; sub < 4; sub++ {
		excBase := 324 + subframeSize*sub
		excitation := e.adaptiveCodebook[excBase : excBase+subframeSize]

		lag, gain := findPitch(e.adaptiveCodebook[:], excBase)
		w.Write(uint32(lag-108), 8)

		gainIdx := roundHalfAway(gain * 15.0)
		w.Write(uint32(gainIdx), 4)
		gain = float32(gainIdx) / 15.0

		var raw innContext
		for j := 0; j < subframeSize; j++ {
			raw.set(j, excitation[j]-gain*e.adaptiveCodebook[excBase+j-lag])
		}

		quantized, _ := encodeInnovation(w, raw, e.params.HalvedInnovation, useHuffman, e.params.gains, targetBitsPerSubframe)

		for j := 0; j < subframeSize; j++ {
			excitation[j] = quantized.at(j) + gain*e.adaptiveCodebook[excBase+j-lag]
		}
	}

	copy(e.adaptiveCodebook[:324], e.adaptiveCodebook[frameSize:frameSize+324])
	return nil
}

// Encoder drives EncodeFrame over a PCM sample stream, producing a
// complete UTM0-ready bitstream (without the UTM0 header itself,
// which container/utm0 writes).
type Encoder struct {
	state  *EncoderState
	config EncoderConfig
}

// NewEncoder returns an Encoder for one stream using config.
func NewEncoder(config EncoderConfig) (*Encoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{state: NewEncoderState(config.StreamParams), config: config}, nil
}

// targetBitsPerSubframe computes the per-subframe innovation bit
// budget from the configured bitrate: bitrate*432/sampleRate/4
// rounded to the nearest integer (halves round up), less 18 bits
// reserved for each subframe's pitch lag and gain fields.
func (e *Encoder) targetBitsPerSubframe() int {
	return (e.config.BitRate*frameSize+2*e.config.SampleRate)/(4*e.config.SampleRate) - 18
}

// EncodeAll reads 16-bit little-endian mono PCM from pcm (zero-padding
// a short final frame) and writes the UTM0 stream parameter word
// followed by every encoded frame to w.
func (e *Encoder) EncodeAll(w io.Writer, pcm []byte) error {
	bw := NewBitWriter()

	halved := uint32(0)
	if e.config.HalvedInnovation {
		halved = 1
	}
	bw.Write(halved, 1)
	bw.Write(uint32(32-e.config.HuffmanThreshold), 4)
	bw.Write(uint32(e.config.InnGainSig/8-1), 4)
	bw.Write(uint32(roundHalfAway((e.config.InnGainBase-1.04)*1000.0)), 6)
	if _, err := bw.FlushFullBytes(w); err != nil {
		return err
	}

	target := e.targetBitsPerSubframe()
	numSamples := len(pcm) / 2

	for i := 0; i < numSamples || i == 0 && numSamples == 0; i += frameSize {
		var frame [frameSize]float32
		n := numSamples - i
		if n > frameSize {
			n = frameSize
		}
		for j := 0; j < n; j++ {
			frame[j] = float32(int16(binary.LittleEndian.Uint16(pcm[2*(i+j):])))
		}

		if err := e.state.EncodeFrame(bw, frame, target); err != nil {
			return errors.Wrap(err, "utk: encoding frame")
		}
		if _, err := bw.FlushFullBytes(w); err != nil {
			return errors.Wrap(err, "utk: flushing frame")
		}

		if numSamples == 0 {
			break
		}
	}

	bw.PadToByte()
	_, err := bw.FlushFullBytes(w)
	return err
}
