/*
NAME
  utm0.go

DESCRIPTION
  utm0.go implements the Maxis UTM0 container: a fixed 32-byte header
  (a cut-down WAVEFORMATEX) followed by the 15-bit stream parameter
  word and the MicroTalk bitstream itself.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package utm0 reads and writes the Maxis UTM0 MicroTalk container.
package utm0

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/niotso/utk/codec/utk"
)

const headerSize = 32

// Header describes one UTM0 file: the decoded PCM size and format,
// plus the stream parameters that follow the 32-byte header.
type Header struct {
	OutSize       uint32 // decoded PCM size in bytes; even, < 2^24
	SamplesPerSec uint32
	Params        utk.StreamParams
}

// ReadHeader parses the 32-byte UTM0 header and the 15-bit stream
// parameter word that follows it, returning a BitReader already
// positioned at the first bit of frame data (the parameter word is
// not byte-aligned, so the frame stream must continue from the same
// reader rather than start a fresh one).
func ReadHeader(r io.Reader) (*Header, *utk.BitReader, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, nil, errors.Wrap(err, "utm0: reading header")
	}

	if string(buf[0:4]) != "UTM0" {
		return nil, nil, errors.Errorf("utm0: bad signature %q", buf[0:4])
	}
	outSize := binary.LittleEndian.Uint32(buf[4:8])
	if outSize%2 != 0 {
		return nil, nil, errors.Errorf("utm0: dwOutSize %d is not even", outSize)
	}
	if outSize >= 1<<24 {
		return nil, nil, errors.Errorf("utm0: dwOutSize %d exceeds 2^24", outSize)
	}
	if wfxSize := binary.LittleEndian.Uint32(buf[8:12]); wfxSize != 20 {
		return nil, nil, errors.Errorf("utm0: dwWfxSize = %d, want 20", wfxSize)
	}
	if tag := binary.LittleEndian.Uint16(buf[12:14]); tag != 1 {
		return nil, nil, errors.Errorf("utm0: wFormatTag = %d, want 1 (PCM)", tag)
	}
	if ch := binary.LittleEndian.Uint16(buf[14:16]); ch != 1 {
		return nil, nil, errors.Errorf("utm0: nChannels = %d, want 1", ch)
	}
	rate := binary.LittleEndian.Uint32(buf[16:20])
	if rate < 8000 || rate > 192000 {
		return nil, nil, errors.Errorf("utm0: nSamplesPerSec %d out of range [8000, 192000]", rate)
	}
	avgBytes := binary.LittleEndian.Uint32(buf[20:24])
	blockAlign := binary.LittleEndian.Uint16(buf[24:26])
	if blockAlign != 2 {
		return nil, nil, errors.Errorf("utm0: nBlockAlign = %d, want 2", blockAlign)
	}
	if avgBytes != rate*uint32(blockAlign) {
		return nil, nil, errors.Errorf("utm0: nAvgBytesPerSec %d != rate*blockAlign", avgBytes)
	}
	if bits := binary.LittleEndian.Uint16(buf[26:28]); bits != 16 {
		return nil, nil, errors.Errorf("utm0: wBitsPerSample = %d, want 16", bits)
	}
	if cb := binary.LittleEndian.Uint16(buf[28:30]); cb != 0 {
		return nil, nil, errors.Errorf("utm0: cbSize = %d, want 0", cb)
	}

	h := &Header{OutSize: outSize, SamplesPerSec: rate}

	// The stream parameter word is bit-packed LSB-first exactly like
	// a frame field, and is immediately followed by frame data that
	// is not byte-aligned to it, so both are read through the one
	// BitReader handed back to the caller.
	br := utk.NewStreamedBitReader(r)

	halved, err := br.Read(1)
	if err != nil {
		return nil, nil, errors.Wrap(err, "utm0: reading halved-innovation flag")
	}
	threshBits, err := br.Read(4)
	if err != nil {
		return nil, nil, errors.Wrap(err, "utm0: reading huffman threshold")
	}
	sigBits, err := br.Read(4)
	if err != nil {
		return nil, nil, errors.Wrap(err, "utm0: reading gain significand")
	}
	baseBits, err := br.Read(6)
	if err != nil {
		return nil, nil, errors.Wrap(err, "utm0: reading gain base")
	}

	h.Params = utk.StreamParams{
		HalvedInnovation: halved != 0,
		HuffmanThreshold: 32 - int(threshBits),
		InnGainSig:       8 * (int(sigBits) + 1),
		InnGainBase:      1.04 + float32(baseBits)/1000.0,
	}
	return h, br, nil
}

// WriteHeader writes the 32-byte UTM0 header for a stream of the given
// sample rate and decoded PCM size. It does not write the stream
// parameter word that follows the header (utk.Encoder.EncodeAll writes
// that), and params is not used.
func WriteHeader(w io.Writer, sampleRate int, outSize uint32, params utk.StreamParams) error {
	var buf [headerSize]byte
	copy(buf[0:4], "UTM0")
	binary.LittleEndian.PutUint32(buf[4:8], outSize)
	binary.LittleEndian.PutUint32(buf[8:12], 20)
	binary.LittleEndian.PutUint16(buf[12:14], 1)
	binary.LittleEndian.PutUint16(buf[14:16], 1)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(sampleRate)*2)
	binary.LittleEndian.PutUint16(buf[24:26], 2)
	binary.LittleEndian.PutUint16(buf[26:28], 16)
	binary.LittleEndian.PutUint16(buf[28:30], 0)
	binary.LittleEndian.PutUint16(buf[30:32], 0)

	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(err, "utm0: writing header")
	}
	return nil
}
