/*
NAME
  innovation.go

DESCRIPTION
  innovation.go implements the per-subframe innovation (excitation
  residual) codec: the Huffman and ternary quantizers, each in full or
  halved bandwidth, the halved-bandwidth interpolation/low-pass
  kernels, and the bandwidth-flag search used when encoding.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package utk

import "github.com/pkg/errors"

// innContextPad is the number of zero-valued guard samples kept on
// either side of a 108-sample innovation vector so the interpolation
// and low-pass kernels never read out of bounds.
const innContextPad = 5

// innContext is an innovation vector plus its zero guard bands. Index
// 0 of the logical vector lives at offset innContextPad.
type innContext [innContextPad*2 + subframeSize]float32

func (c *innContext) at(i int) float32     { return c[i+innContextPad] }
func (c *innContext) set(i int, v float32) { c[i+innContextPad] = v }

// interpolate fills the inactive (non-a-parity) positions of a
// halved-bandwidth innovation vector, either with zero (z=1) or with
// a symmetric 6-tap reconstruction of the active positions (z=0).
func interpolate(c *innContext, a, z int) {
	start := 1 - a
	if z != 0 {
		for i := start; i < subframeSize; i += 2 {
			c.set(i, 0)
		}
		return
	}
	for i := start; i < subframeSize; i += 2 {
		v := (c.at(i-1)+c.at(i+1))*interpTap1 -
			(c.at(i-3)+c.at(i+3))*interpTap3 +
			(c.at(i-5)+c.at(i+5))*interpTap5
		c.set(i, v)
	}
}

// interpolationError measures how well interpolate would reconstruct
// the inactive positions of c, used by findAZFlags to pick (a, z).
func interpolationError(c *innContext, a, z int) float32 {
	start := 1 - a
	var total float32
	if z != 0 {
		for i := start; i < subframeSize; i += 2 {
			v := c.at(i)
			total += v * v
		}
		return total
	}
	for i := start; i < subframeSize; i += 2 {
		prediction := (c.at(i-1)+c.at(i+1))*interpTap1 -
			(c.at(i-3)+c.at(i+3))*interpTap3 +
			(c.at(i-5)+c.at(i+5))*interpTap5
		e := prediction - c.at(i)
		total += e * e
	}
	return total
}

// findAZFlags picks the (a, z) bandwidth flags that minimize the
// interpolation error of the downsampling step. Ties are broken in
// the fixed order (0,1), (1,1), (0,0), (1,0): z=1 (plain zero-fill) is
// preferred over interpolation when the errors tie, e.g. during
// silence.
func findAZFlags(c *innContext) (a, z int) {
	a, z = 0, 1
	best := interpolationError(c, 0, 1)

	if e := interpolationError(c, 1, 1); e < best {
		best, a, z = e, 1, 1
	}
	if e := interpolationError(c, 0, 0); e < best {
		best, a, z = e, 0, 0
	}
	if e := interpolationError(c, 1, 0); e < best {
		a, z = 1, 0
	}
	return a, z
}

// lowPassInnovation applies the weak pre-downsampling low-pass filter
// to the active-parity samples of c, in place.
func lowPassInnovation(c *innContext, a, z int) {
	scale := float32(0.5)
	if z != 0 {
		scale = 1.0
	}
	for i := a; i < subframeSize; i += 2 {
		v := scale * (c.at(i) +
			(c.at(i-1)+c.at(i+1))*lowPassTap1 -
			(c.at(i-3)+c.at(i+3))*lowPassTap3 +
			(c.at(i-5)+c.at(i+5))*lowPassTap5)
		c.set(i, v)
	}
}

// huffNode is one node of a Huffman decode trie built from the fixed
// value/bit-count tables in tables.go.
type huffNode struct {
	children [2]*huffNode
	leaf     bool
	escape   bool
	symbol   int
}

func insertHuffCode(root *huffNode, value uint32, bits uint, leaf huffNode) {
	cur := root
	for i := uint(0); i < bits; i++ {
		bit := (value >> i) & 1
		if cur.children[bit] == nil {
			cur.children[bit] = &huffNode{}
		}
		cur = cur.children[bit]
	}
	*cur = leaf
}

// buildHuffmanTrie constructs the decode trie for one of the two
// Huffman models, including its zero-run escape leaf: 0xFF over 8
// bits for model 0, 0x7F over 7 bits for model 1. Both escape
// prefixes are, by construction of the fixed code tables, not a
// prefix of (nor prefixed by) any ordinary symbol codeword.
func buildHuffmanTrie(model int) *huffNode {
	root := &huffNode{}
	for sym := -13; sym <= 13; sym++ {
		code := huffmanModels[model][sym+13]
		insertHuffCode(root, code.value, code.bits, huffNode{leaf: true, symbol: sym})
	}
	if model == 0 {
		insertHuffCode(root, 255, 8, huffNode{leaf: true, escape: true})
	} else {
		insertHuffCode(root, 127, 7, huffNode{leaf: true, escape: true})
	}
	return root
}

var huffmanTries = [2]*huffNode{buildHuffmanTrie(0), buildHuffmanTrie(1)}

// decodeHuffmanSymbol reads one Huffman-coded value from r using the
// given model. If the code read is the zero-run escape, escLen holds
// the run length (already offset by the +7 encoded in the stream) and
// isEscape is true.
func decodeHuffmanSymbol(r *BitReader, model int) (symbol, escLen int, isEscape bool, err error) {
	node := huffmanTries[model]
	for !node.leaf {
		bit, err := r.Read(1)
		if err != nil {
			return 0, 0, false, err
		}
		next := node.children[bit]
		if next == nil {
			return 0, 0, false, errors.New("utk: invalid huffman code in innovation stream")
		}
		node = next
	}
	if node.escape {
		lengthBits, err := r.Read(6)
		if err != nil {
			return 0, 0, false, err
		}
		return 0, int(lengthBits) + 7, true, nil
	}
	return node.symbol, 0, false, nil
}

// encodeHuffmanSymbol writes one Huffman-coded value in [-13, 13].
func encodeHuffmanSymbol(w *BitWriter, model int, value int) {
	code := huffmanModels[model][value+13]
	w.Write(code.value, code.bits)
}

// encodeHuffmanEscape writes a zero-run escape of runLen consecutive
// zero symbols (runLen in [7, 70]).
func encodeHuffmanEscape(w *BitWriter, model, runLen int) {
	if model == 0 {
		w.Write(255|(uint32(runLen-7)<<8), 14)
	} else {
		w.Write(127|(uint32(runLen-7)<<7), 13)
	}
}

// decodeInnovation reads one subframe's innovation vector. gains is
// the stream's 64-entry innovation gain ladder.
func decodeInnovation(r *BitReader, halved, useHuffman bool, gains [64]float32) (innContext, error) {
	var c innContext

	interval := 1
	a, z := 0, 1
	var pow uint32
	var err error

	if halved {
		interval = 2
		hdr, rerr := r.Read(8)
		if rerr != nil {
			return c, rerr
		}
		pow = hdr & 0x3F
		a = int((hdr >> 6) & 1)
		z = int((hdr >> 7) & 1)
	} else {
		pow, err = r.Read(6)
		if err != nil {
			return c, err
		}
	}

	var gain float32
	if useHuffman {
		gain = gains[pow]
		if z == 0 {
			gain *= 0.5
		}
	} else {
		gain = 2 * gains[pow]
		if z == 0 {
			gain *= 0.5
		}
	}

	model := 0
	for i := a; i < subframeSize; {
		if useHuffman {
			sym, runLen, isEsc, err := decodeHuffmanSymbol(r, model)
			if err != nil {
				return c, err
			}
			if isEsc {
				for n := 0; n < runLen && i < subframeSize; n++ {
					c.set(i, 0)
					i += interval
				}
				model = 0
				continue
			}
			c.set(i, gain*float32(sym))
			if sym < -1 || sym > 1 {
				model = 1
			} else {
				model = 0
			}
			i += interval
		} else {
			bit0, err := r.Read(1)
			if err != nil {
				return c, err
			}
			value := 0
			if bit0 != 0 {
				bit1, err := r.Read(1)
				if err != nil {
					return c, err
				}
				if bit1 != 0 {
					value = 1
				} else {
					value = -1
				}
			}
			c.set(i, gain*float32(value))
			i += interval
		}
	}

	if halved {
		interpolate(&c, a, z)
	}
	return c, nil
}

// encodeInnovationAt trial-encodes raw using a specific (pow, a, z)
// and quantizer, writing into w and returning the reconstructed
// (quantized, pre-interpolation) vector, the bits consumed, and the
// squared reconstruction error over the active positions.
func encodeInnovationAt(w *BitWriter, raw innContext, halved, useHuffman bool, gains [64]float32, pow, a, z int) (out innContext, bitsUsed int, sqErr float32) {
	interval := 1
	if halved {
		interval = 2
	}
	start := w.BitPosition()

	if halved {
		w.Write(uint32(pow)|uint32(a)<<6|uint32(z)<<7, 8)
	} else {
		w.Write(uint32(pow), 6)
	}

	if useHuffman {
		gain := gains[pow]
		if z == 0 {
			gain *= 0.5
		}

		values := make([]int, subframeSize)
		zeroRun := make([]int, subframeSize)
		for i := a; i < subframeSize; i += interval {
			v := raw.at(i) / gain
			if v > 13 {
				v = 13
			} else if v < -13 {
				v = -13
			}
			iv := roundHalfAway(v)
			values[i] = iv
			out.set(i, gain*float32(iv))
			e := out.at(i) - raw.at(i)
			sqErr += e * e
		}

		counter := 0
		for i := subframeSize - interval - a; i >= 0; i -= interval {
			if values[i] == 0 {
				counter++
			} else {
				counter = 0
			}
			zeroRun[i] = counter
		}

		model := 0
		for i := a; i < subframeSize; {
			if zeroRun[i] >= 7 {
				length := zeroRun[i]
				if length > 70 {
					length = 70
				}
				encodeHuffmanEscape(w, model, length)
				model = 0
				i += length * interval
			} else {
				encodeHuffmanSymbol(w, model, values[i])
				model = boolToModel(values[i])
				i += interval
			}
		}
	} else {
		gain := 2 * gains[pow]
		if z == 0 {
			gain *= 0.5
		}
		for i := a; i < subframeSize; i += interval {
			v := raw.at(i) / gain
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			iv := roundHalfAway(v)
			switch {
			case iv > 0:
				w.Write(3, 2)
			case iv < 0:
				w.Write(1, 2)
			default:
				w.Write(0, 1)
			}
			out.set(i, gain*float32(iv))
			e := out.at(i) - raw.at(i)
			sqErr += e * e
		}
	}

	bitsUsed = w.BitPosition() - start
	return out, bitsUsed, sqErr
}

func boolToModel(value int) int {
	if value < -1 || value > 1 {
		return 1
	}
	return 0
}

func roundHalfAway(x float32) int {
	if x >= 0 {
		return int(x + 0.5)
	}
	return int(x - 0.5)
}

// encodeInnovation picks the bandwidth flags (when halved) and the
// gain step that best matches targetBits (Huffman mode) or minimizes
// reconstruction error (ternary mode). It trial-encodes each
// candidate gain into a forked scratch BitWriter (mirroring the
// reference encoder's double-buffer search), commits the winning
// trial's bits into w, and returns the quantized, decoder-equivalent
// innovation vector plus the number of bits it consumed.
func encodeInnovation(w *BitWriter, raw innContext, halved, useHuffman bool, gains [64]float32, targetBits int) (innContext, int) {
	a, z := 0, 1
	if halved {
		a, z = findAZFlags(&raw)
		lowPassInnovation(&raw, a, z)
	}
	interval := 1
	if halved {
		interval = 2
	}

	var bestOut innContext
	var bestBits int
	var bestWriter *BitWriter

	if useHuffman {
		var maxValue float32
		for i := a; i < subframeSize; i += interval {
			v := raw.at(i)
			if v < 0 {
				v = -v
			}
			if v > maxValue {
				maxValue = v
			}
		}
		scale := float32(1.0)
		if z == 0 {
			scale = 0.5
		}
		// Find the smallest gain step that avoids clipping by more
		// than half a quantization level anywhere in the subframe.
		minPow := 0
		for p := 62; p >= 0; p-- {
			if gains[p]*scale*13.5 < maxValue {
				minPow = p + 1
				break
			}
		}

		bestDistance := 0
		for pow := minPow; pow <= 63; pow++ {
			trial := w.fork()
			out, bits, _ := encodeInnovationAt(trial, raw, halved, true, gains, pow, a, z)
			distance := bits - targetBits
			if distance < 0 {
				distance = -distance
			}
			// <= so that a tie goes to the larger pow.
			if bestWriter == nil || distance <= bestDistance {
				bestDistance = distance
				bestOut, bestBits = out, bits
				bestWriter = trial
			}
		}
	} else {
		var bestError float32
		for pow := 0; pow <= 63; pow++ {
			trial := w.fork()
			out, bits, sqErr := encodeInnovationAt(trial, raw, halved, false, gains, pow, a, z)
			if bestWriter == nil || sqErr < bestError {
				bestError = sqErr
				bestOut, bestBits = out, bits
				bestWriter = trial
			}
		}
	}

	w.absorb(bestWriter)
	if halved {
		interpolate(&bestOut, a, z)
	}
	return bestOut, bestBits
}
