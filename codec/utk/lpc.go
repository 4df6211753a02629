/*
NAME
  lpc.go

DESCRIPTION
  lpc.go implements the linear-prediction transforms shared by the
  encoder and decoder: autocorrelation, the Levinson-Durbin recursion
  that turns it into reflection coefficients, and the reflection
  coefficient to linear-prediction-coefficient conversion used when
  synthesizing or analyzing a subframe.

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

import "gonum.org/v1/gonum/floats"

// frameSize is the number of samples in one MicroTalk frame.
const frameSize = 432

// subframeSize is the number of samples in one of a frame's 4 pitch
// analysis subframes.
const subframeSize = 108

// lpcOrder is the linear prediction order used throughout.
const lpcOrder = 12

// degenerateThreshold is the near-zero guard used by Levinson-Durbin;
// below this magnitude, the energy terms are treated as exactly zero
// to avoid a blow-up in the recursion.
const degenerateThreshold = float32(1.0 / 32768.0)

// autocorrelate computes r[0..lpcOrder] for the given frame of
// samples. There is no windowing: r[i] = sum(samples[j]*samples[j+i])
// for j in [0, len(samples)-i). Each lag's sum is a plain dot product
// of the frame against itself shifted by i, computed with
// gonum/floats.Dot in float64 to avoid compounding rounding error
// across the 432-sample accumulation.
func autocorrelate(samples []float32) [lpcOrder + 1]float32 {
	n := len(samples)
	s64 := make([]float64, n)
	for i, v := range samples {
		s64[i] = float64(v)
	}

	var r [lpcOrder + 1]float32
	for i := 0; i <= lpcOrder; i++ {
		r[i] = float32(floats.Dot(s64[:n-i], s64[i:n]))
	}
	return r
}

// levinsonDurbin solves the symmetric Toeplitz system given
// autocorrelation r[0..lpcOrder] and right-hand side y = r[1..lpcOrder+1],
// returning the lpcOrder reflection coefficients k. The degenerate
// (near-silent) case returns all zeros, and the final coefficient is
// refined as k[11] = -x[11] per the reference recursion.
func levinsonDurbin(r [lpcOrder + 1]float32) [lpcOrder]float32 {
	var k [lpcOrder]float32
	var x [lpcOrder]float32

	if r[0] <= degenerateThreshold && r[0] >= -degenerateThreshold {
		return k
	}

	var a [lpcOrder]float32
	a[0] = 1
	e := r[0]
	x[0] = r[1] / r[0]

	for i := 1; i < lpcOrder; i++ {
		var u float32
		for j := 0; j < i; j++ {
			u += a[j] * r[i-j]
		}

		k[i-1] = -u / e
		e += u * k[i-1]

		if e <= degenerateThreshold && e >= -degenerateThreshold {
			var zero [lpcOrder]float32
			return zero
		}

		aTemp := a
		a[i] = 0
		for j := 1; j <= i; j++ {
			a[j] += k[i-1] * aTemp[i-j]
		}

		m := r[i+1]
		for j := 0; j < i; j++ {
			m -= x[j] * r[i-j]
		}
		m /= e

		x[i] = 0
		for j := 0; j <= i; j++ {
			x[j] += m * a[i-j]
		}
	}

	k[lpcOrder-1] = -x[lpcOrder-1]
	return k
}

// rcToLPC converts reflection coefficients k[0..lpcOrder) to linear
// prediction coefficients via the same forward-vector recurrence used
// inside levinsonDurbin, without the normal-equation solve.
func rcToLPC(k [lpcOrder]float32) [lpcOrder]float32 {
	var a [lpcOrder + 1]float32
	a[0] = 1

	for i := 1; i <= lpcOrder; i++ {
		aTemp := a
		a[i] = 0
		for j := 1; j <= i; j++ {
			a[j] += k[i-1] * aTemp[i-j]
		}
	}

	var lpc [lpcOrder]float32
	for i := 1; i <= lpcOrder; i++ {
		lpc[i-1] = -a[i]
	}
	return lpc
}

// findRC runs autocorrelation and Levinson-Durbin over a 432-sample
// frame to produce the frame's 12 reflection coefficients.
func findRC(samples []float32) [lpcOrder]float32 {
	return levinsonDurbin(autocorrelate(samples))
}
