package bnb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/niotso/utk/codec/utk"
)

func buildChunk(typ string, body []byte) []byte {
	hdr := make([]byte, 8)
	copy(hdr[:4], typ)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(8+len(body)))
	return append(hdr, body...)
}

// metadataBody builds the (key, varint) stream a real PT chunk carries
// after its leading command byte, terminated by key 0xFF.
func metadataBody(pairs map[byte]uint32) []byte {
	var body []byte
	for k, v := range pairs {
		body = append(body, k, 1, byte(v))
	}
	body = append(body, 0xFF)
	return body
}

// ptChunkBody builds a full PT chunk body: a single 0xFD command byte
// followed by the metadata stream. The PT chunk carries only this
// metadata; the bitstream itself is not part of the chunk.
func ptChunkBody(pairs map[byte]uint32) []byte {
	body := []byte{0xFD}
	return append(body, metadataBody(pairs)...)
}

func TestNewReaderRejectsWrongCompressionType(t *testing.T) {
	data := buildChunk("PT\x00\x00", ptChunkBody(map[byte]uint32{keyNumSamples: 10, keyCompressionType: 4}))
	if _, err := NewReader(bytes.NewReader(data), utk.DefaultStreamParams()); err == nil {
		t.Fatal("expected an error for a non-9 compression type")
	}
}

func TestDecodeSingleFrameStream(t *testing.T) {
	config := utk.DefaultEncoderConfig(22050)
	encState := utk.NewEncoderState(config.StreamParams)
	bw := utk.NewBitWriter()
	var silence [432]float32
	if err := encState.EncodeFrame(bw, silence, 100); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	bw.PadToByte()

	data := buildChunk("PT\x00\x00", ptChunkBody(map[byte]uint32{keyNumSamples: 20, keyCompressionType: wantCompressionType}))
	data = append(data, bw.Bytes()...)

	r, err := NewReader(bytes.NewReader(data), config.StreamParams)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var out bytes.Buffer
	if err := r.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Len() != 20*2 {
		t.Fatalf("decoded %d bytes, want %d", out.Len(), 20*2)
	}
}
