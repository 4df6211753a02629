/*
DESCRIPTION
  utkdecode-fifa decodes an EA SCHl/SCCl/SCDl/SCEl MicroTalk stream (as
  used by FIFA-era EA titles) to a 16-bit mono WAVE file.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command utkdecode-fifa decodes an EA SCHl MicroTalk stream.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/niotso/utk/codec/utk"
	"github.com/niotso/utk/codec/wav"
	"github.com/niotso/utk/container/ea"
)

const (
	logVerbosity = logging.Info
	logSuppress  = true

	eaSampleRate = 22050 // EA MicroTalk streams of this era carry no rate field of their own.
)

func main() {
	force := flag.Bool("f", false, "force overwrite of an existing output file")
	quiet := flag.Bool("q", false, "suppress the interactive overwrite prompt")
	flag.Parse()

	log := logging.New(logVerbosity, os.Stderr, logSuppress)

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: utkdecode-fifa [-f] [-q] infile outfile")
		os.Exit(1)
	}
	infile, outfile := flag.Arg(0), flag.Arg(1)

	if err := run(log, infile, outfile, *force, *quiet); err != nil {
		log.Fatal("utkdecode-fifa failed", "error", fmt.Sprintf("%+v", err))
	}
}

func run(log logging.Logger, infile, outfile string, force, quiet bool) error {
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

	params := utk.DefaultStreamParams()
	reader, err := ea.NewReader(bufio.NewReader(in), params)
	if err != nil {
		return errors.Wrap(err, "reading SCHl header")
	}
	log.Info("decoding EA SCHl stream",
		"samples", reader.Header.NumSamples,
		"compressionType", reader.Header.CompressionType,
		"codecRevision", reader.Header.CodecRevision)

	var pcmBuf pcmBuffer
	if err := reader.Decode(&pcmBuf); err != nil {
		return errors.Wrap(err, "decoding frames")
	}

	w := &wav.WAV{Metadata: wav.Metadata{
		AudioFormat: wav.PCMFormat,
		Channels:    1,
		SampleRate:  eaSampleRate,
		BitDepth:    16,
	}}
	if _, err := w.Write(pcmBuf.Bytes()); err != nil {
		return errors.Wrap(err, "encoding WAVE output")
	}
	if _, err := out.Write(w.Audio); err != nil {
		return errors.Wrap(err, "writing WAVE output")
	}

	log.Info("decode complete", "samples", reader.Header.NumSamples)
	return nil
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
