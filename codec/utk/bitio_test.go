package utk

import (
	"bytes"
	"testing"
)

func TestBitWriterReaderRoundTrip(t *testing.T) {
	type field struct {
		value uint32
		width uint
	}
	fields := []field{
		{5, 3}, {7, 3}, {0, 2}, {1, 1}, {0xFFFF, 16}, {1, 1}, {1023, 10},
	}

	w := NewBitWriter()
	for _, f := range fields {
		w.Write(f.value, f.width)
	}
	w.PadToByte()

	var buf bytes.Buffer
	if _, err := w.FlushFullBytes(&buf); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewBitReader(buf.Bytes())
	for i, f := range fields {
		got, err := r.Read(f.width)
		if err != nil {
			t.Fatalf("field %d: %v", i, err)
		}
		want := f.value & (uint32(1)<<f.width - 1)
		if got != want {
			t.Errorf("field %d: got %d, want %d", i, got, want)
		}
	}
}

func TestBitWriterExamplePacking(t *testing.T) {
	// (5,3), (7,3), (0,2) packs into a single byte 0b00111101 = 0x3D.
	w := NewBitWriter()
	w.Write(5, 3)
	w.Write(7, 3)
	w.Write(0, 2)
	w.PadToByte()

	var buf bytes.Buffer
	if _, err := w.FlushFullBytes(&buf); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := buf.Bytes(); len(got) != 1 || got[0] != 0x3D {
		t.Fatalf("got %v, want [0x3D]", got)
	}
}

func TestBitReaderUnderrun(t *testing.T) {
	r := NewBitReader([]byte{0x01})
	if _, err := r.Read(8); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.Read(1); err == nil {
		t.Fatal("expected underrun error, got nil")
	}
}

func TestBitWriterForkAbsorb(t *testing.T) {
	w := NewBitWriter()
	w.Write(1, 3) // leaves a pending partial byte

	trial := w.fork()
	trial.Write(0x1F, 5) // completes the byte started by w

	w.absorb(trial)
	w.PadToByte()

	var buf bytes.Buffer
	if _, err := w.FlushFullBytes(&buf); err != nil {
		t.Fatalf("flush: %v", err)
	}
	// 0b001 from w, then 0b11111 from trial above it: 0b11111001.
	if got := buf.Bytes(); len(got) != 1 || got[0] != 0xF9 {
		t.Fatalf("got %v, want [0xF9]", got)
	}
}

func TestBitPositionTracking(t *testing.T) {
	w := NewBitWriter()
	if w.BitPosition() != 0 {
		t.Fatalf("initial position: got %d, want 0", w.BitPosition())
	}
	w.Write(1, 5)
	if w.BitPosition() != 5 {
		t.Fatalf("after 5 bits: got %d, want 5", w.BitPosition())
	}
	w.Write(1, 6)
	if w.BitPosition() != 11 {
		t.Fatalf("after 11 bits: got %d, want 11", w.BitPosition())
	}
}
