package eachunk

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildChunk(typ string, body []byte) []byte {
	hdr := make([]byte, 8)
	copy(hdr[:4], typ)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(8+len(body)))
	return append(hdr, body...)
}

func TestReadChunk(t *testing.T) {
	body := []byte{0x85, 1, 10, 0xFF}
	data := buildChunk("PT  ", body)

	c, err := ReadChunk(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if c.TypeString() != "PT  " {
		t.Fatalf("type = %q", c.TypeString())
	}
	meta, err := c.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta[0x85] != 10 {
		t.Fatalf("meta[0x85] = %d, want 10", meta[0x85])
	}
}

func TestReadChunkUndersizedHeader(t *testing.T) {
	hdr := make([]byte, 8)
	copy(hdr[:4], "SCHl")
	binary.LittleEndian.PutUint32(hdr[4:], 4) // smaller than the 8-byte header itself
	if _, err := ReadChunk(bytes.NewReader(hdr)); err == nil {
		t.Fatal("expected an error for a chunk size smaller than its own header")
	}
}

func TestReadChunkOversizedBody(t *testing.T) {
	hdr := make([]byte, 8)
	copy(hdr[:4], "SCDl")
	binary.LittleEndian.PutUint32(hdr[4:], 8+maxChunkBody+1)
	if _, err := ReadChunk(bytes.NewReader(hdr)); err == nil {
		t.Fatal("expected an error for a chunk body exceeding the 4096-byte bound")
	}
}

func TestVarIntBigEndian(t *testing.T) {
	c := &Chunk{Data: []byte{2, 0x01, 0x02}}
	v, err := c.ReadVarInt()
	if err != nil {
		t.Fatalf("ReadVarInt: %v", err)
	}
	if v != 0x0102 {
		t.Fatalf("got %#x, want 0x0102", v)
	}
}

func TestReadCommandMetadataSkipsLeadingCommands(t *testing.T) {
	// Two skipped commands (each a 1-byte varint argument), then the
	// 0xFD command that introduces the real metadata stream.
	data := []byte{
		0x01, 1, 0x00,
		0x02, 1, 0x00,
		0xFD,
		0x85, 1, 20,
		0xFF,
	}
	c := &Chunk{Data: data}
	meta, err := c.ReadCommandMetadata()
	if err != nil {
		t.Fatalf("ReadCommandMetadata: %v", err)
	}
	if meta[0x85] != 20 {
		t.Fatalf("meta[0x85] = %d, want 20", meta[0x85])
	}
}
