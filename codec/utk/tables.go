/*
NAME
  tables.go

DESCRIPTION
  tables.go holds the static tables that make up part of the MicroTalk
  wire format: the reflection-coefficient codebook and the two Huffman
  models used by the innovation codec. Every literal value here is part
  of the bitstream contract and must not be adjusted for readability.

AUTHOR
  Saltwater Stonefish <stonefish@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package utk implements the MicroTalk (UTK/UTalk) CELP speech codec
// kernel: the bit-level frame format, the linear-prediction transforms,
// and the innovation (excitation residual) codec shared by the decoder
// and the encoder.
package utk

// rcTable is the 64-entry reflection-coefficient codebook. Index 32 is
// exactly zero; indices 1..31 and 33..63 are negative/positive mirrors
// of each other. Index 0 is unused by the encoder (it quantizes the
// first four coefficients into indices 1..63) but is retained as part
// of the table's wire-format shape.
var rcTable = [64]float32{
	0,
	-.99677598476409912109375, -.99032700061798095703125, -.983879029750823974609375, -.977430999279022216796875,
	-.970982015132904052734375, -.964533984661102294921875, -.958085000514984130859375, -.9516370296478271484375,
	-.930754005908966064453125, -.904959976673126220703125, -.879167020320892333984375, -.853372991085052490234375,
	-.827579021453857421875, -.801786005496978759765625, -.775991976261138916015625, -.75019800662994384765625,
	-.724404990673065185546875, -.6986110210418701171875, -.6706349849700927734375, -.61904799938201904296875,
	-.567460000514984130859375, -.515873014926910400390625, -.4642859995365142822265625, -.4126980006694793701171875,
	-.361110985279083251953125, -.309523999691009521484375, -.257937014102935791015625, -.20634900033473968505859375,
	-.1547619998455047607421875, -.10317499935626983642578125, -.05158700048923492431640625,
	0,
	+.05158700048923492431640625, +.10317499935626983642578125, +.1547619998455047607421875, +.20634900033473968505859375,
	+.257937014102935791015625, +.309523999691009521484375, +.361110985279083251953125, +.4126980006694793701171875,
	+.4642859995365142822265625, +.515873014926910400390625, +.567460000514984130859375, +.61904799938201904296875,
	+.6706349849700927734375, +.6986110210418701171875, +.724404990673065185546875, +.75019800662994384765625,
	+.775991976261138916015625, +.801786005496978759765625, +.827579021453857421875, +.853372991085052490234375,
	+.879167020320892333984375, +.904959976673126220703125, +.930754005908966064453125, +.9516370296478271484375,
	+.958085000514984130859375, +.964533984661102294921875, +.970982015132904052734375, +.977430999279022216796875,
	+.983879029750823974609375, +.99032700061798095703125, +.99677598476409912109375,
}

// huffmanCode is one entry of a Huffman model: the bit pattern written
// LSB-first and how many bits it occupies.
type huffmanCode struct {
	value uint32
	bits  uint
}

// huffmanModels holds the two innovation Huffman models, indexed
// [model][symbol+13] for symbol in [-13, 13].
var huffmanModels = [2][27]huffmanCode{
	{ // model 0
		{16255, 16}, {8063, 15}, {3967, 14}, {1919, 13}, {895, 12},
		{383, 11}, {127, 10}, {63, 8}, {31, 7}, {15, 6}, {7, 5}, {3, 4}, {2, 2},
		{0, 2},
		{1, 2}, {11, 4}, {23, 5}, {47, 6}, {95, 7}, {191, 8}, {639, 10},
		{1407, 11}, {2943, 12}, {6015, 13}, {12159, 14}, {24447, 15}, {49023, 16},
	},
	{ // model 1
		{8127, 15}, {4031, 14}, {1983, 13}, {959, 12}, {447, 11},
		{191, 10}, {63, 9}, {31, 7}, {15, 6}, {7, 5}, {3, 4}, {1, 3}, {2, 3},
		{0, 2},
		{6, 3}, {5, 3}, {11, 4}, {23, 5}, {47, 6}, {95, 7}, {319, 9},
		{703, 10}, {1471, 11}, {3007, 12}, {6079, 13}, {12223, 14}, {24511, 15},
	},
}

// Interpolation kernel used by the decoder (and by the encoder when
// reconstructing what the decoder will see) to fill in the inactive
// positions of a halved-bandwidth innovation vector.
const (
	interpTap1 = 0.5973859429
	interpTap3 = 0.1145915613
	interpTap5 = 0.0180326793
)

// Low-pass kernel applied on the encode side to the active-parity
// samples before halved-bandwidth quantization, so that the
// interpolation reconstruction above is a good predictor of what was
// thrown away.
const (
	lowPassTap1 = 0.6189590521549956
	lowPassTap3 = 0.1633990749076792
	lowPassTap5 = 0.05858453198856907
)

// innGainSteps builds the 64-entry innovation gain ladder G(p) = sig *
// base^p used by both the encoder and the decoder; sig and base are
// carried once per stream in the UTM0 stream parameter word.
func innGainSteps(sig, base float32) [64]float32 {
	var g [64]float32
	g[0] = sig
	for i := 1; i < 64; i++ {
		g[i] = g[i-1] * base
	}
	return g
}
