package utm0

import (
	"bytes"
	"testing"

	"github.com/niotso/utk/codec/utk"
)

func TestWriteReadHeaderRoundTrip(t *testing.T) {
	params := utk.DefaultStreamParams()

	var buf bytes.Buffer
	if err := WriteHeader(&buf, 22050, 88200, params); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	w := utk.NewBitWriter()
	w.Write(boolBit(params.HalvedInnovation), 1)
	w.Write(uint32(32-params.HuffmanThreshold), 4)
	w.Write(uint32(params.InnGainSig/8-1), 4)
	w.Write(uint32((params.InnGainBase-1.04)*1000), 6)
	w.PadToByte()
	buf.Write(w.Bytes())

	h, br, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.OutSize != 88200 {
		t.Fatalf("OutSize = %d, want 88200", h.OutSize)
	}
	if h.SamplesPerSec != 22050 {
		t.Fatalf("SamplesPerSec = %d, want 22050", h.SamplesPerSec)
	}
	if h.Params.HalvedInnovation != params.HalvedInnovation {
		t.Fatalf("HalvedInnovation = %v, want %v", h.Params.HalvedInnovation, params.HalvedInnovation)
	}
	if h.Params.HuffmanThreshold != params.HuffmanThreshold {
		t.Fatalf("HuffmanThreshold = %d, want %d", h.Params.HuffmanThreshold, params.HuffmanThreshold)
	}
	if br == nil {
		t.Fatal("ReadHeader returned a nil BitReader")
	}
}

func TestReadHeaderBadSignature(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, 22050, 88200, utk.DefaultStreamParams()); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	b := buf.Bytes()
	b[0] = 'X'
	if _, _, err := ReadHeader(bytes.NewReader(b)); err == nil {
		t.Fatal("expected an error for a corrupted signature")
	}
}

func TestReadHeaderOddOutSize(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, 22050, 88201, utk.DefaultStreamParams()); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, _, err := ReadHeader(&buf); err == nil {
		t.Fatal("expected an error for an odd dwOutSize")
	}
}

func TestReadHeaderSampleRateOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, 4000, 88200, utk.DefaultStreamParams()); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, _, err := ReadHeader(&buf); err == nil {
		t.Fatal("expected an error for a sample rate below 8000")
	}
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
