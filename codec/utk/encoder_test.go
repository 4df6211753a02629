package utk

import "testing"

func TestEncodeFrameSilence(t *testing.T) {
	config := DefaultEncoderConfig(22050)
	enc, err := NewEncoder(config)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	var silence [frameSize]float32
	w := NewBitWriter()
	if err := enc.state.EncodeFrame(w, silence, enc.targetBitsPerSubframe()); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	w.PadToByte()

	dec := NewDecoderState(config.StreamParams)
	r := NewBitReader(w.Bytes())
	out, err := dec.DecodeFrame(r)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0 for an all-silent frame", i, v)
		}
	}
}

func TestEncoderConfigValidate(t *testing.T) {
	c := DefaultEncoderConfig(22050)
	if err := c.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}

	bad := c
	bad.HuffmanThreshold = 99
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range huffman threshold")
	}

	bad2 := c
	bad2.InnGainSig = 7
	if err := bad2.Validate(); err == nil {
		t.Fatal("expected validation error for non-multiple-of-8 gain significand")
	}
}

func TestEncodeAllNullStream(t *testing.T) {
	config := DefaultEncoderConfig(22050)
	enc, err := NewEncoder(config)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	pcm := make([]byte, frameSize*2) // one frame of silence
	var buf sinkBuffer
	if err := enc.EncodeAll(&buf, pcm); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	if len(buf.data) == 0 {
		t.Fatal("expected non-empty encoded output")
	}
}

// sinkBuffer is a minimal io.Writer used to avoid importing bytes in
// every test file that just wants to capture bytes.
type sinkBuffer struct{ data []byte }

func (b *sinkBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
