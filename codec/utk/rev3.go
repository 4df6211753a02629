/*
NAME
  rev3.go

DESCRIPTION
  rev3.go documents the one deliberately unimplemented codec path: the
  EA "codec revision >= 3" innovation bit layout. The retained
  reference sources describe only that such frames exist and that an
  alternate decode routine is selected for them; the routine's own bit
  layout was never retrieved. Guessing at it would silently corrupt
  audio, so this path fails loudly instead.

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

// ErrUnsupportedRevision is returned by container readers when a
// stream declares an EA codec revision of 3 or higher.
var ErrUnsupportedRevision = errors.New("utk: codec revision 3+ innovation layout is not supported")

// SupportsRevision reports whether this implementation can decode the
// given EA codec revision. Only revisions 0-2 use the standard frame
// layout implemented by DecoderState.DecodeFrame.
func SupportsRevision(revision int) bool {
	return revision < 3
}
