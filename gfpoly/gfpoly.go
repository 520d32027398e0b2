// Package gfpoly implements polynomials over GF(256), coefficients ordered
// highest-degree first, matching the convention ISO/IEC 18004 uses for
// Reed-Solomon codewords (codeword[0] is the highest-order term).
//
// Polynomial is immutable: every operation returns a new value.
package gfpoly

import (
	"fmt"

	"github.com/jalphad/qrvision/gf"
	"github.com/jalphad/qrvision/qrerror"
)

// Polynomial is a GF(256) polynomial, coefficients from highest degree to
// the constant term. The constructor strips leading zero coefficients, so
// Coefficients()[0] is always non-zero except for the zero polynomial,
// which is represented as a single zero coefficient.
type Polynomial struct {
	field        *gf.Field
	coefficients []byte
}

// NewPolynomial builds a polynomial from coefficients (highest degree
// first), stripping leading zeros. An empty coefficients slice is an
// InvalidArgument.
func NewPolynomial(field *gf.Field, coefficients []byte) (*Polynomial, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("gfpoly: empty coefficient list: %w", qrerror.InvalidArgument)
	}
	firstNonZero := 0
	for firstNonZero < len(coefficients)-1 && coefficients[firstNonZero] == 0 {
		firstNonZero++
	}
	coeffs := coefficients
	if firstNonZero > 0 {
		coeffs = append([]byte(nil), coefficients[firstNonZero:]...)
	} else {
		coeffs = append([]byte(nil), coefficients...)
	}
	return &Polynomial{field: field, coefficients: coeffs}, nil
}

// BuildMonomial returns coefficient * x^degree as a Polynomial. degree must
// be >= 0.
func BuildMonomial(field *gf.Field, degree int, coefficient byte) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("gfpoly: build monomial with negative degree: %w", qrerror.InvalidArgument)
	}
	if coefficient == 0 {
		return NewPolynomial(field, []byte{0})
	}
	coeffs := make([]byte, degree+1)
	coeffs[0] = coefficient
	return NewPolynomial(field, coeffs)
}

// Field returns the GF(256) field this polynomial is defined over.
func (p *Polynomial) Field() *gf.Field { return p.field }

// Coefficients returns the coefficients, highest degree first. The
// returned slice must not be mutated by the caller.
func (p *Polynomial) Coefficients() []byte { return p.coefficients }

// Degree returns the polynomial's degree. The zero polynomial has degree 0
// by this representation (a single coefficient equal to zero), matching
// GetCoefficient(0) == 0 for IsZero() == true.
func (p *Polynomial) Degree() int { return len(p.coefficients) - 1 }

// IsZero reports whether this is the zero polynomial.
func (p *Polynomial) IsZero() bool {
	return p.coefficients[0] == 0
}

// GetCoefficient returns the coefficient of x^degree, or 0 if degree is out
// of range.
func (p *Polynomial) GetCoefficient(degree int) byte {
	if degree < 0 || degree > p.Degree() {
		return 0
	}
	return p.coefficients[len(p.coefficients)-1-degree]
}

// EvaluateAt evaluates the polynomial at a using Horner's method.
func (p *Polynomial) EvaluateAt(a byte) byte {
	if a == 0 {
		return p.GetCoefficient(0)
	}
	result := p.coefficients[0]
	if a == 1 {
		// x^i terms behave specially at a==1: sum of coefficients via XOR.
		for _, c := range p.coefficients[1:] {
			result = p.field.Add(result, c)
		}
		return result
	}
	for _, c := range p.coefficients[1:] {
		result = p.field.Add(p.field.Multiply(a, result), c)
	}
	return result
}

// AddOrSubtract returns p + other (equivalently p - other, characteristic
// 2).
func (p *Polynomial) AddOrSubtract(other *Polynomial) (*Polynomial, error) {
	if p.IsZero() {
		return other, nil
	}
	if other.IsZero() {
		return p, nil
	}

	smaller, larger := p.coefficients, other.coefficients
	if len(smaller) > len(larger) {
		smaller, larger = larger, smaller
	}
	sumDiff := make([]byte, len(larger))
	lengthDiff := len(larger) - len(smaller)
	copy(sumDiff, larger[:lengthDiff])
	for i := lengthDiff; i < len(larger); i++ {
		sumDiff[i] = p.field.Add(smaller[i-lengthDiff], larger[i])
	}
	return NewPolynomial(p.field, sumDiff)
}

// Multiply returns p * other.
func (p *Polynomial) Multiply(other *Polynomial) (*Polynomial, error) {
	if p.IsZero() || other.IsZero() {
		return NewPolynomial(p.field, []byte{0})
	}
	a := p.coefficients
	b := other.coefficients
	product := make([]byte, len(a)+len(b)-1)
	for i, ac := range a {
		if ac == 0 {
			continue
		}
		for j, bc := range b {
			product[i+j] = p.field.Add(product[i+j], p.field.Multiply(ac, bc))
		}
	}
	return NewPolynomial(p.field, product)
}

// MultiplyByScalar returns p scaled by a single GF(256) coefficient.
func (p *Polynomial) MultiplyByScalar(scalar byte) (*Polynomial, error) {
	if scalar == 0 {
		return NewPolynomial(p.field, []byte{0})
	}
	if scalar == 1 {
		return p, nil
	}
	product := make([]byte, len(p.coefficients))
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, scalar)
	}
	return NewPolynomial(p.field, product)
}

// MultiplyByMonomial returns p * (coefficient * x^degree). degree must be
// >= 0.
func (p *Polynomial) MultiplyByMonomial(degree int, coefficient byte) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("gfpoly: multiply by monomial with negative degree: %w", qrerror.InvalidArgument)
	}
	if coefficient == 0 {
		return NewPolynomial(p.field, []byte{0})
	}
	product := make([]byte, len(p.coefficients)+degree)
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, coefficient)
	}
	return NewPolynomial(p.field, product)
}

// Divide performs polynomial long division, returning (quotient,
// remainder) such that p = other*quotient + remainder and
// remainder.Degree() < other.Degree(). other must not be the zero
// polynomial.
func (p *Polynomial) Divide(other *Polynomial) (quotient, remainder *Polynomial, err error) {
	if other.IsZero() {
		return nil, nil, fmt.Errorf("gfpoly: divide by zero polynomial: %w", qrerror.InvalidArgument)
	}

	quotient, _ = NewPolynomial(p.field, []byte{0})
	remainder = p

	denominatorLeadingTerm := other.GetCoefficient(other.Degree())
	inverseDenominatorLeadingTerm, err := p.field.Inverse(denominatorLeadingTerm)
	if err != nil {
		return nil, nil, fmt.Errorf("gfpoly: divide: %w", err)
	}

	for remainder.Degree() >= other.Degree() && !remainder.IsZero() {
		degreeDifference := remainder.Degree() - other.Degree()
		scale := p.field.Multiply(remainder.GetCoefficient(remainder.Degree()), inverseDenominatorLeadingTerm)
		term, err := other.MultiplyByMonomial(degreeDifference, scale)
		if err != nil {
			return nil, nil, fmt.Errorf("gfpoly: divide: scale divisor term: %w", err)
		}
		iterationQuotient, err := BuildMonomial(p.field, degreeDifference, scale)
		if err != nil {
			return nil, nil, fmt.Errorf("gfpoly: divide: build quotient term: %w", err)
		}
		quotient, err = quotient.AddOrSubtract(iterationQuotient)
		if err != nil {
			return nil, nil, fmt.Errorf("gfpoly: divide: accumulate quotient: %w", err)
		}
		remainder, err = remainder.AddOrSubtract(term)
		if err != nil {
			return nil, nil, fmt.Errorf("gfpoly: divide: reduce remainder: %w", err)
		}
	}

	return quotient, remainder, nil
}
