/*
DESCRIPTION
  utkencode encodes a 16-bit PCM WAVE file to a Maxis UTM0 MicroTalk
  bitstream.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command utkencode encodes a WAVE file to a Maxis UTM0 MicroTalk
// bitstream.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/niotso/utk/codec/pcm"
	"github.com/niotso/utk/codec/utk"
	"github.com/niotso/utk/codec/wav"
	"github.com/niotso/utk/container/utm0"
)

const (
	logVerbosity = logging.Info
	logSuppress  = true
	logMaxSize   = 10 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func main() {
	force := flag.Bool("f", false, "force overwrite of an existing output file")
	quiet := flag.Bool("q", false, "suppress the interactive overwrite prompt")
	halved := flag.Bool("H", true, "use halved-bandwidth innovation coding")
	full := flag.Bool("F", false, "use full-bandwidth innovation coding (overrides -H)")
	bitrate := flag.Int("b", 32000, "target bitrate in bits/sec")
	threshold := flag.Int("T", 24, "huffman coding threshold, 16..32")
	gainSig := flag.Int("S", 64, "innovation gain significand, multiple of 8 in 8..128")
	gainBase := flag.Float64("B", 1.068, "innovation gain base, 1.040..1.103")
	logPath := flag.String("log", "", "mirror diagnostics to this rotated log file")
	flag.Parse()

	var writers []io.Writer
	writers = append(writers, os.Stderr)
	if *logPath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		})
	}
	log := logging.New(logVerbosity, io.MultiWriter(writers...), logSuppress)

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: utkencode [-fqHF] [-b bitrate] [-T N] [-S N] [-B N] [-log path] infile outfile")
		os.Exit(1)
	}
	infile, outfile := flag.Arg(0), flag.Arg(1)

	params := utk.DefaultStreamParams()
	params.HalvedInnovation = *halved && !*full
	params.HuffmanThreshold = *threshold
	params.InnGainSig = *gainSig
	params.InnGainBase = float32(*gainBase)

	if err := run(log, infile, outfile, *force, *quiet, *bitrate, params); err != nil {
		log.Fatal("utkencode failed", "error", fmt.Sprintf("%+v", err))
	}
}

func run(log logging.Logger, infile, outfile string, force, quiet bool, bitrate int, params utk.StreamParams) error {
	in, err := openInput(infile)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer in.Close()

	meta, samples, err := wav.Read(bufio.NewReader(in))
	if err != nil {
		return errors.Wrap(err, "reading WAVE input")
	}
	log.Info("read WAVE input", "channels", meta.Channels, "sampleRate", meta.SampleRate, "bitDepth", meta.BitDepth)

	buf := pcm.Buffer{
		Format: pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: uint(meta.SampleRate), Channels: uint(meta.Channels)},
		Data:   samples,
	}
	if buf.Format.Channels != 1 {
		buf, err = pcm.StereoToMono(buf)
		if err != nil {
			return errors.Wrap(err, "converting to mono")
		}
		log.Info("converted input to mono")
	}

	out, err := openOutput(outfile, force, quiet)
	if err != nil {
		return errors.Wrap(err, "opening output")
	}
	defer out.Close()

	config := utk.EncoderConfig{SampleRate: int(buf.Format.Rate), BitRate: bitrate, StreamParams: params}
	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "validating encoder configuration")
	}

	enc, err := utk.NewEncoder(config)
	if err != nil {
		return errors.Wrap(err, "creating encoder")
	}

	if err := utm0.WriteHeader(out, config.SampleRate, uint32(len(buf.Data)), params); err != nil {
		return errors.Wrap(err, "writing UTM0 header")
	}
	if err := enc.EncodeAll(out, buf.Data); err != nil {
		return errors.Wrap(err, "encoding frames")
	}

	log.Info("encode complete", "samples", len(buf.Data)/2, "bitrate", bitrate)
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
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
