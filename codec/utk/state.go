/*
NAME
  state.go

DESCRIPTION
  state.go defines the per-stream mutable state carried across frames
  by the decoder and encoder, plus the stream-level parameters that
  both sides must agree on (bandwidth mode, Huffman threshold,
  innovation gain ladder).

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

import "github.com/pkg/errors"

// StreamParams is the 15-bit stream parameter word that follows a
// UTM0 header (or the equivalent fields threaded through the EA/BNB
// containers): the innovation bandwidth mode and the gain ladder
// parameters shared by every frame in the stream.
type StreamParams struct {
	HalvedInnovation bool
	HuffmanThreshold int // 16..32
	InnGainSig       int // 8,16,...,128
	InnGainBase      float32 // 1.040..1.103

	gains [64]float32
}

// DefaultStreamParams mirrors the reference encoder's defaults.
func DefaultStreamParams() StreamParams {
	p := StreamParams{
		HalvedInnovation: true,
		HuffmanThreshold: 24,
		InnGainSig:       64,
		InnGainBase:      1.068,
	}
	p.gains = innGainSteps(float32(p.InnGainSig), p.InnGainBase)
	return p
}

// Validate checks the stream parameters are within the ranges the
// wire format's stream parameter word can represent.
func (p StreamParams) Validate() error {
	if p.HuffmanThreshold < 16 || p.HuffmanThreshold > 32 {
		return errors.Errorf("utk: huffman threshold %d out of range [16, 32]", p.HuffmanThreshold)
	}
	if p.InnGainSig < 8 || p.InnGainSig > 128 || p.InnGainSig%8 != 0 {
		return errors.Errorf("utk: innovation gain significand %d must be a multiple of 8 in [8, 128]", p.InnGainSig)
	}
	if p.InnGainBase < 1.040 || p.InnGainBase > 1.103 {
		return errors.Errorf("utk: innovation gain base %v out of range [1.040, 1.103]", p.InnGainBase)
	}
	return nil
}

// resolveGains (re)computes the innovation gain ladder from
// InnGainSig/InnGainBase; call after changing either field directly.
func (p *StreamParams) resolveGains() {
	p.gains = innGainSteps(float32(p.InnGainSig), p.InnGainBase)
}

// adaptiveCodebookLen is the size of the rolling excitation-history
// buffer: 324 samples of lookback plus the current 432-sample frame.
const adaptiveCodebookLen = 324 + frameSize

// DecoderState holds everything a decoder must remember between
// frames of a single stream.
type DecoderState struct {
	params StreamParams

	prevRC          [lpcOrder]float32
	lpcHistory      [lpcOrder]float32
	adaptiveCodebook [adaptiveCodebookLen]float32
}

// NewDecoderState creates a fresh decoder state for one stream.
func NewDecoderState(params StreamParams) *DecoderState {
	params.resolveGains()
	return &DecoderState{params: params}
}

// EncoderState holds everything an encoder must remember between
// frames of a single stream.
type EncoderState struct {
	params StreamParams

	inputOverlap    [lpcOrder]float32
	prevRC          [lpcOrder]float32
	adaptiveCodebook [adaptiveCodebookLen]float32
}

// NewEncoderState creates a fresh encoder state for one stream.
func NewEncoderState(params StreamParams) *EncoderState {
	params.resolveGains()
	return &EncoderState{params: params}
}

// EncoderConfig collects the tunable parameters of the UTK encoder:
// the target bitrate plus the stream parameters that get written into
// the UTM0 stream parameter word.
type EncoderConfig struct {
	SampleRate int // Hz, 1000..1000000
	BitRate    int // bits/sec, 1000..1000000
	StreamParams
}

// DefaultEncoderConfig returns the reference encoder's defaults for a
// given sample rate.
func DefaultEncoderConfig(sampleRate int) EncoderConfig {
	return EncoderConfig{
		SampleRate:   sampleRate,
		BitRate:      32000,
		StreamParams: DefaultStreamParams(),
	}
}

// Validate checks every field is within its documented range.
func (c EncoderConfig) Validate() error {
	if c.SampleRate < 1000 || c.SampleRate > 1000000 {
		return errors.Errorf("utk: sample rate %d out of range [1000, 1000000]", c.SampleRate)
	}
	if c.BitRate < 1000 || c.BitRate > 1000000 {
		return errors.Errorf("utk: bitrate %d out of range [1000, 1000000]", c.BitRate)
	}
	return c.StreamParams.Validate()
}
