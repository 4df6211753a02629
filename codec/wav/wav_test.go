/*
NAME
  wav_test.go

DESCRIPTION
  wav_test.go contains tests for the wav package.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package wav provides functions for converting wav audio.
package wav

import (
	"bytes"
	"testing"
)

func TestWavWriter(t *testing.T) {
	tests := []struct {
		name    string
		md Metadata
		input []byte
		wantN   int
		wantErr error
	}{
		{name: "Header Only", md: Metadata{AudioFormat: PCMFormat, Channels: 1, SampleRate: 48000, BitDepth: 16}, input: nil, wantN: 44, wantErr: nil},
		{name: "4 bytes", md: Metadata{AudioFormat: PCMFormat, Channels: 1, SampleRate: 48000, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 48, wantErr: nil},
		{name: "No format", md: Metadata{Channels: 1, SampleRate: 48000, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidFormat},
		{name: "Invalid format", md: Metadata{AudioFormat: 2, Channels: 1, SampleRate: 48000, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidFormat},
		{name: "No channels", md: Metadata{AudioFormat: PCMFormat, SampleRate: 48000, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidChannels},
		{name: "Invalid channels", md: Metadata{AudioFormat: PCMFormat, Channels: 0, SampleRate: 48000, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidChannels},
		{name: "No sample rate", md: Metadata{AudioFormat: PCMFormat, Channels: 1, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidRate},
		{name: "Invalid sample rate", md: Metadata{AudioFormat: PCMFormat, Channels: 1, SampleRate: 0, BitDepth: 16}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidRate},
		{name: "No bit depth", md: Metadata{AudioFormat: PCMFormat, Channels: 1, SampleRate: 48000}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidBitDepth},
		{name: "Invalid bit depth", md: Metadata{AudioFormat: PCMFormat, Channels: 1, SampleRate: 48000, BitDepth: 0}, input: []byte{0,0,0,0}, wantN: 0, wantErr: errInvalidBitDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WAV{
				Metadata: tt.md,
			}

			gotN, err := w.Write(tt.input)
			if err != tt.wantErr {
				t.Errorf("WAV.Write() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if gotN != tt.wantN {
				t.Errorf("WAV.Write() = %v, want %v", gotN, tt.wantN)
			}

		})
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 0xFF, 0xFF, 0, 0x80}
	w := &WAV{Metadata: Metadata{AudioFormat: PCMFormat, Channels: 1, SampleRate: 22050, BitDepth: 16}}
	if _, err := w.Write(pcm); err != nil {
		t.Fatalf("Write: %v", err)
	}

	meta, data, err := Read(bytes.NewReader(w.Audio))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.Channels != 1 {
		t.Errorf("Channels = %d, want 1", meta.Channels)
	}
	if meta.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", meta.SampleRate)
	}
	if meta.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", meta.BitDepth)
	}
	if !bytes.Equal(data, pcm) {
		t.Errorf("PCM data = %v, want %v", data, pcm)
	}
}

func TestReadRejectsNonWAV(t *testing.T) {
	if _, _, err := Read(bytes.NewReader([]byte("not a wav file"))); err == nil {
		t.Fatal("expected an error for non-WAV input")
	}
}
