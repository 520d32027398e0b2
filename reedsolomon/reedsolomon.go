// Package reedsolomon implements the Reed-Solomon decoder QR codes rely on
// to recover codewords corrupted by dirt, glare, or printing defects.
//
// The algorithm follows ISO/IEC 18004's error model directly: syndromes,
// the extended Euclidean algorithm to find the error locator and evaluator
// polynomials, a Chien search for the roots, and Forney's formula for the
// magnitudes.
package reedsolomon

import (
	"fmt"

	"github.com/jalphad/qrvision/gf"
	"github.com/jalphad/qrvision/gfpoly"
	"github.com/jalphad/qrvision/qrerror"
)

// Decoder corrects codewords in place over a shared GF(256) field.
type Decoder struct {
	field *gf.Field
}

// NewDecoder returns a decoder over the QR code GF(256) field.
func NewDecoder() *Decoder {
	return &Decoder{field: gf.NewQRCodeField()}
}

// NewDecoderWithField returns a decoder over a caller-supplied field, for
// callers that already built one (e.g. to share it with gfpoly consumers).
func NewDecoderWithField(field *gf.Field) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects up to twoS/2 byte errors in received, in place. twoS is
// the number of error-correction codewords in the block (2s, where s is
// the number of errors the block is provisioned to correct).
//
// If the codeword is already error-free, Decode returns immediately
// without modifying received. Otherwise it returns qrerror.ReedSolomon if
// the block cannot be corrected (too many errors, or an internal
// consistency check fails).
func (d *Decoder) Decode(received []byte, twoS int) error {
	poly, err := gfpoly.NewPolynomial(d.field, received)
	if err != nil {
		return fmt.Errorf("reedsolomon: decode: build received polynomial: %w", err)
	}

	syndromeCoefficients := make([]byte, twoS)
	noError := true
	for i := 0; i < twoS; i++ {
		eval := poly.EvaluateAt(d.field.Exp(i))
		syndromeCoefficients[len(syndromeCoefficients)-1-i] = eval
		if eval != 0 {
			noError = false
		}
	}
	if noError {
		return nil
	}

	syndrome, err := gfpoly.NewPolynomial(d.field, syndromeCoefficients)
	if err != nil {
		return fmt.Errorf("reedsolomon: decode: build syndrome polynomial: %w", err)
	}

	monomial, err := gfpoly.BuildMonomial(d.field, twoS, 1)
	if err != nil {
		return fmt.Errorf("reedsolomon: decode: build x^twoS monomial: %w", err)
	}

	sigma, omega, err := d.runEuclideanAlgorithm(monomial, syndrome, twoS)
	if err != nil {
		return fmt.Errorf("reedsolomon: decode: %w", err)
	}

	errorLocations, err := d.findErrorLocations(sigma)
	if err != nil {
		return fmt.Errorf("reedsolomon: decode: %w", err)
	}
	errorMagnitudes := d.findErrorMagnitudes(omega, errorLocations)

	for i, location := range errorLocations {
		position := len(received) - 1 - d.field.Log(location)
		if position < 0 {
			return fmt.Errorf("reedsolomon: decode: corrected position %d out of range: %w", position, qrerror.ReedSolomon)
		}
		received[position] = d.field.Add(received[position], errorMagnitudes[i])
	}
	return nil
}

// runEuclideanAlgorithm reduces a (x^twoS) against b (the syndrome
// polynomial) until the remainder's degree drops below twoS/2, returning
// the normalized error locator (sigma) and error evaluator (omega)
// polynomials.
func (d *Decoder) runEuclideanAlgorithm(a, b *gfpoly.Polynomial, twoS int) (sigma, omega *gfpoly.Polynomial, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}

	rLast, r := a, b
	tLastPoly, _ := gfpoly.NewPolynomial(d.field, []byte{0})
	tPoly, _ := gfpoly.NewPolynomial(d.field, []byte{1})

	for r.Degree() >= twoS/2 {
		rLastLast, tLastLast := rLast, tLastPoly
		rLast, tLastPoly = r, tPoly

		if rLast.IsZero() {
			return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: remainder degree did not drop below twoS/2: %w", qrerror.ReedSolomon)
		}
		r = rLastLast

		q, _ := gfpoly.NewPolynomial(d.field, []byte{0})
		denominatorLeadingTerm := rLast.GetCoefficient(rLast.Degree())
		dltInverse, invErr := d.field.Inverse(denominatorLeadingTerm)
		if invErr != nil {
			return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: invert leading term: %w", qrerror.ReedSolomon)
		}

		for r.Degree() >= rLast.Degree() && !r.IsZero() {
			degreeDiff := r.Degree() - rLast.Degree()
			scale := d.field.Multiply(r.GetCoefficient(r.Degree()), dltInverse)

			monomial, buildErr := gfpoly.BuildMonomial(d.field, degreeDiff, scale)
			if buildErr != nil {
				return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: build scale monomial: %w", buildErr)
			}
			q, err = q.AddOrSubtract(monomial)
			if err != nil {
				return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: accumulate quotient: %w", err)
			}

			term, mulErr := rLast.MultiplyByMonomial(degreeDiff, scale)
			if mulErr != nil {
				return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: scale divisor: %w", mulErr)
			}
			r, err = r.AddOrSubtract(term)
			if err != nil {
				return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: reduce remainder: %w", err)
			}
		}

		tMul, mulErr := q.Multiply(tLastPoly)
		if mulErr != nil {
			return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: update t polynomial: %w", mulErr)
		}
		tPoly, err = tMul.AddOrSubtract(tLastLast)
		if err != nil {
			return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: update t polynomial: %w", err)
		}

		if r.Degree() >= rLast.Degree() {
			return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: remainder degree stalled: %w", qrerror.ReedSolomon)
		}
	}

	sigmaTildeAtZero := tPoly.GetCoefficient(0)
	if sigmaTildeAtZero == 0 {
		return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: error locator constant term is zero: %w", qrerror.ReedSolomon)
	}

	inverse, invErr := d.field.Inverse(sigmaTildeAtZero)
	if invErr != nil {
		return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: normalize error locator: %w", qrerror.ReedSolomon)
	}
	sigma, err = tPoly.MultiplyByScalar(inverse)
	if err != nil {
		return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: scale error locator: %w", err)
	}
	omega, err = r.MultiplyByScalar(inverse)
	if err != nil {
		return nil, nil, fmt.Errorf("reedsolomon: euclidean algorithm: scale error evaluator: %w", err)
	}
	return sigma, omega, nil
}

// findErrorLocations runs a Chien search over errorLocator (sigma),
// returning the field elements alpha^j at which errors occurred.
func (d *Decoder) findErrorLocations(errorLocator *gfpoly.Polynomial) ([]byte, error) {
	numErrors := errorLocator.Degree()
	if numErrors == 1 {
		return []byte{errorLocator.GetCoefficient(1)}, nil
	}
	result := make([]byte, numErrors)
	e := 0
	for i := 1; i < 256 && e < numErrors; i++ {
		if errorLocator.EvaluateAt(byte(i)) == 0 {
			inv, err := d.field.Inverse(byte(i))
			if err != nil {
				return nil, fmt.Errorf("reedsolomon: chien search: invert root: %w", qrerror.ReedSolomon)
			}
			result[e] = inv
			e++
		}
	}
	if e != numErrors {
		return nil, fmt.Errorf("reedsolomon: chien search: found %d of %d expected roots: %w", e, numErrors, qrerror.ReedSolomon)
	}
	return result, nil
}

// findErrorMagnitudes applies Forney's formula at each error location
// using the error evaluator polynomial (omega). The termPlus1 step below
// follows ZXing's workaround for computing 1 + term: it toggles the low
// bit of term, which is the same as adding 1 in GF(256).
func (d *Decoder) findErrorMagnitudes(errorEvaluator *gfpoly.Polynomial, errorLocations []byte) []byte {
	s := len(errorLocations)
	result := make([]byte, s)
	for i := 0; i < s; i++ {
		xiInverse, _ := d.field.Inverse(errorLocations[i])
		denominator := byte(1)
		for j := 0; j < s; j++ {
			if i == j {
				continue
			}
			term := d.field.Multiply(errorLocations[j], xiInverse)
			var termPlus1 byte
			if term&0x1 == 0 {
				termPlus1 = term | 1
			} else {
				termPlus1 = term &^ 1
			}
			denominator = d.field.Multiply(denominator, termPlus1)
		}
		inv, _ := d.field.Inverse(denominator)
		result[i] = d.field.Multiply(errorEvaluator.EvaluateAt(xiInverse), inv)
	}
	return result
}
