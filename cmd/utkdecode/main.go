/*
DESCRIPTION
  utkdecode decodes a Maxis UTM0 MicroTalk file to a 16-bit mono WAVE
  file.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command utkdecode decodes a Maxis UTM0 MicroTalk file to WAVE.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/niotso/utk/codec/pcm"
	"github.com/niotso/utk/codec/utk"
	"github.com/niotso/utk/codec/wav"
	"github.com/niotso/utk/container/utm0"
)

const (
	logVerbosity = logging.Info
	logSuppress  = true

	declickCutoffHz = 6000.0
	declickTaps     = 64
)

func main() {
	force := flag.Bool("f", false, "force overwrite of an existing output file")
	quiet := flag.Bool("q", false, "suppress the interactive overwrite prompt")
	declick := flag.Bool("declick", false, "apply a post-synthesis low-pass filter to the decoded audio")
	flag.Parse()

	log := logging.New(logVerbosity, os.Stderr, logSuppress)

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: utkdecode [-f] [-q] [-declick] infile outfile")
		os.Exit(1)
	}
	infile, outfile := flag.Arg(0), flag.Arg(1)

	if err := run(log, infile, outfile, *force, *quiet, *declick); err != nil {
		log.Fatal("utkdecode failed", "error", fmt.Sprintf("%+v", err))
	}
}

func run(log logging.Logger, infile, outfile string, force, quiet, declick bool) error {
	in, err := openInput(infile)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer in.Close()

	out, err := openOutput(outfile, force, quiet)
	if err != nil {
		return errors.Wrap(err, "opening output")
	}
	defer out.Close()

	header, br, err := utm0.ReadHeader(bufio.NewReader(in))
	if err != nil {
		return errors.Wrap(err, "reading UTM0 header")
	}
	log.Info("decoding UTM0 stream", "samplesPerSec", header.SamplesPerSec, "outSize", header.OutSize)

	numSamples := int(header.OutSize / 2)
	decoder := utk.NewDecoder(br, header.Params, numSamples)

	var pcmBuf pcmBuffer
	if err := decoder.Decode(&pcmBuf); err != nil {
		return errors.Wrap(err, "decoding frames")
	}

	samples := pcmBuf.Bytes()
	if declick {
		filtered, err := applyDeclick(samples, int(header.SamplesPerSec))
		if err != nil {
			log.Warning("declick filter failed, writing unfiltered audio", "error", err.Error())
		} else {
			samples = filtered
		}
	}

	w := &wav.WAV{Metadata: wav.Metadata{
		AudioFormat: wav.PCMFormat,
		Channels:    1,
		SampleRate:  int(header.SamplesPerSec),
		BitDepth:    16,
	}}
	if _, err := w.Write(samples); err != nil {
		return errors.Wrap(err, "encoding WAVE output")
	}
	if _, err := out.Write(w.Audio); err != nil {
		return errors.Wrap(err, "writing WAVE output")
	}

	log.Info("decode complete", "samples", numSamples)
	return nil
}

func applyDeclick(pcmBytes []byte, sampleRate int) ([]byte, error) {
	format := pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: uint(sampleRate), Channels: 1}
	filter, err := pcm.NewLowPass(declickCutoffHz, format, declickTaps)
	if err != nil {
		return nil, errors.Wrap(err, "building declick filter")
	}
	return filter.Apply(pcm.Buffer{Format: format, Data: pcmBytes})
}

type pcmBuffer struct{ data []byte }

func (b *pcmBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *pcmBuffer) Bytes() []byte { return b.data }

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

func openOutput(path string, force, quiet bool) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			if quiet || !isTerminal(os.Stdin) {
				return nil, errors.Errorf("output file %q already exists; use -f to overwrite", path)
			}
			fmt.Fprintf(os.Stderr, "output file %q already exists; overwrite? [y/N] ", path)
			var reply string
			fmt.Scanln(&reply)
			if reply != "y" && reply != "Y" {
				return nil, errors.Errorf("not overwriting %q", path)
			}
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
