package ea

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

// metadataBody builds the (key, varint) stream a real SCHl/PT chunk
// carries after its leading command byte: each pair as a 1-byte key
// and a 1-byte-length varint, terminated by key 0xFF.
func metadataBody(pairs map[byte]uint32) []byte {
	var body []byte
	for k, v := range pairs {
		body = append(body, k, 1, byte(v))
	}
	body = append(body, 0xFF)
	return body
}

// schlBody builds a full SCHl chunk body: the 4-byte "PT\x00\x00" id,
// a single 0xFD command byte, and the metadata stream.
func schlBody(pairs map[byte]uint32) []byte {
	body := []byte{'P', 'T', 0, 0, 0xFD}
	return append(body, metadataBody(pairs)...)
}

func scclBody(numDataChunks uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, numDataChunks)
	return b
}

func TestNewReaderRejectsRevision3(t *testing.T) {
	data := buildChunk("SCHl", schlBody(map[byte]uint32{
		keyNumSamples:      0,
		keyCompressionType: 4,
		keyCodecRevision:   3,
	}))

	if _, err := NewReader(bytes.NewReader(data), utk.DefaultStreamParams()); err == nil {
		t.Fatal("expected an error for codec_revision 3")
	}
}

func TestNewReaderAcceptsRevision0(t *testing.T) {
	data := buildChunk("SCHl", schlBody(map[byte]uint32{
		keyNumSamples:      432,
		keyCompressionType: 4,
		keyCodecRevision:   0,
	}))
	data = append(data, buildChunk("SCCl", scclBody(0))...)

	r, err := NewReader(bytes.NewReader(data), utk.DefaultStreamParams())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Header.NumSamples != 432 {
		t.Fatalf("NumSamples = %d, want 432", r.Header.NumSamples)
	}
}

func TestNewReaderRejectsWrongChunkType(t *testing.T) {
	data := buildChunk("SCDl", []byte{0xFF})
	if _, err := NewReader(bytes.NewReader(data), utk.DefaultStreamParams()); err == nil {
		t.Fatal("expected an error for a non-SCHl first chunk")
	}
}

func TestNewReaderRejectsMissingSCCl(t *testing.T) {
	data := buildChunk("SCHl", schlBody(map[byte]uint32{
		keyNumSamples:      0,
		keyCompressionType: 4,
		keyCodecRevision:   0,
	}))
	data = append(data, buildChunk("SCDl", []byte{0, 0, 0, 0, 0, 0, 0, 0, 0})...)

	if _, err := NewReader(bytes.NewReader(data), utk.DefaultStreamParams()); err == nil {
		t.Fatal("expected an error when SCCl is missing")
	}
}

func TestDecodeShortCountsFinalFrame(t *testing.T) {
	header := buildChunk("SCHl", schlBody(map[byte]uint32{
		keyNumSamples:      10,
		keyCompressionType: 4,
		keyCodecRevision:   0,
	}))
	header = append(header, buildChunk("SCCl", scclBody(1))...)

	config := utk.DefaultEncoderConfig(22050)
	encState := utk.NewEncoderState(config.StreamParams)
	bw := utk.NewBitWriter()
	var silence [432]float32
	if err := encState.EncodeFrame(bw, silence, 100); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	bw.PadToByte()

	// SCDl body: 4-byte sample count, 4-byte unused field, 1-byte
	// unused field, then the bit-packed frame payload.
	scdlBody := make([]byte, 9)
	binary.LittleEndian.PutUint32(scdlBody[0:4], 10)
	scdlBody = append(scdlBody, bw.Bytes()...)

	data := header
	data = append(data, buildChunk("SCDl", scdlBody)...)
	data = append(data, buildChunk("SCEl", nil)...)

	r, err := NewReader(bytes.NewReader(data), config.StreamParams)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var out bytes.Buffer
	if err := r.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Len() != 10*2 {
		t.Fatalf("decoded %d bytes, want %d (10 samples short-counted from a 432-sample frame)", out.Len(), 10*2)
	}
}
