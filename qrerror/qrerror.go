// Package qrerror defines the sentinel error kinds surfaced by the QR
// decoding pipeline. Every component wraps one of these with fmt.Errorf's
// %w so callers can still errors.Is against the kind while getting a
// specific message.
package qrerror

import "errors"

// NotFound means no QR symbol could be located in the image: no finder
// triple, no alignment pattern in its expected region, a binarizer that
// found no usable contrast, a sampled point that fell outside the image,
// or a dimension that is structurally impossible (dimension mod 4 == 3).
//
// NotFound from the alignment-pattern search is caught by the detector,
// which then samples without an alignment pattern; every other NotFound
// surfaces to the caller.
var NotFound = errors.New("qrcode: not found")

// Format means a QR symbol was located but its encoded structure is
// inconsistent: a bit-matrix dimension that doesn't fit 17+4*version, a
// format or version info word that isn't within Hamming distance 3 of any
// valid codeword, a bitstream that runs out of bits mid-field, or an
// invalid mode indicator.
var Format = errors.New("qrcode: format error")

// ReedSolomon means error correction itself failed: the Euclidean
// algorithm could not reduce the remainder, the normalized error locator's
// constant term was zero, the Chien search found the wrong number of
// roots, or a corrected error position came out negative.
var ReedSolomon = errors.New("qrcode: reed-solomon error")

// InvalidArgument is reserved for programming errors: a negative
// polynomial degree, an empty coefficient list, the inverse of zero. It is fatal and is never expected to occur given well-formed
// inputs from inside this module.
var InvalidArgument = errors.New("qrcode: invalid argument")
