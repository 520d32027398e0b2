package gfpoly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalphad/qrvision/gf"
)

func field(t *testing.T) *gf.Field {
	t.Helper()
	return gf.NewQRCodeField()
}

func TestNewPolynomial_StripsLeadingZeros(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{0, 0, 5, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 3}, p.Coefficients())
	assert.Equal(t, 1, p.Degree())
}

func TestNewPolynomial_EmptyIsInvalidArgument(t *testing.T) {
	f := field(t)
	_, err := NewPolynomial(f, nil)
	assert.Error(t, err)
}

func TestNewPolynomial_AllZeroCollapsesToSingleZero(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{0, 0, 0})
	require.NoError(t, err)
	assert.True(t, p.IsZero())
	assert.Equal(t, []byte{0}, p.Coefficients())
}

func TestBuildMonomial(t *testing.T) {
	f := field(t)
	p, err := BuildMonomial(f, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Degree())
	assert.Equal(t, byte(5), p.GetCoefficient(3))
	assert.Equal(t, byte(0), p.GetCoefficient(0))
}

func TestBuildMonomial_ZeroCoefficientIsZeroPolynomial(t *testing.T) {
	f := field(t)
	p, err := BuildMonomial(f, 5, 0)
	require.NoError(t, err)
	assert.True(t, p.IsZero())
}

func TestPolynomial_EvaluateAt_Zero(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{3, 7, 9})
	require.NoError(t, err)
	assert.Equal(t, byte(9), p.EvaluateAt(0))
}

func TestPolynomial_EvaluateAt_One(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{3, 7, 9})
	require.NoError(t, err)
	want := f.Add(f.Add(3, 7), 9)
	assert.Equal(t, want, p.EvaluateAt(1))
}

func TestPolynomial_Multiply_ByZeroIsZero(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{1, 2, 3})
	require.NoError(t, err)
	zero, err := NewPolynomial(f, []byte{0})
	require.NoError(t, err)
	product, err := p.Multiply(zero)
	require.NoError(t, err)
	assert.True(t, product.IsZero())
}

func TestPolynomial_MultiplyByMonomial_ShiftsDegree(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{1, 2})
	require.NoError(t, err)
	shifted, err := p.MultiplyByMonomial(2, 1)
	require.NoError(t, err)
	assert.Equal(t, p.Degree()+2, shifted.Degree())
}

func TestPolynomial_Divide_ReconstructsDividend(t *testing.T) {
	f := field(t)
	dividend, err := NewPolynomial(f, []byte{1, 0, 1, 1, 0, 1})
	require.NoError(t, err)
	divisor, err := NewPolynomial(f, []byte{1, f.Exp(3)})
	require.NoError(t, err)

	quotient, remainder, err := dividend.Divide(divisor)
	require.NoError(t, err)
	assert.Less(t, remainder.Degree(), divisor.Degree())

	product, err := quotient.Multiply(divisor)
	require.NoError(t, err)
	reconstructed, err := product.AddOrSubtract(remainder)
	require.NoError(t, err)
	assert.Equal(t, dividend.EvaluateAt(1), reconstructed.EvaluateAt(1))
	assert.Equal(t, dividend.EvaluateAt(f.Exp(5)), reconstructed.EvaluateAt(f.Exp(5)))
}

func TestPolynomial_Divide_ByZeroIsInvalidArgument(t *testing.T) {
	f := field(t)
	p, err := NewPolynomial(f, []byte{1, 2})
	require.NoError(t, err)
	zero, err := NewPolynomial(f, []byte{0})
	require.NoError(t, err)
	_, _, err = p.Divide(zero)
	assert.Error(t, err)
}

func TestPolynomial_AddOrSubtract_IsSelfInverse(t *testing.T) {
	f := field(t)
	a, err := NewPolynomial(f, []byte{5, 9, 1})
	require.NoError(t, err)
	b, err := NewPolynomial(f, []byte{2, 2})
	require.NoError(t, err)

	sum, err := a.AddOrSubtract(b)
	require.NoError(t, err)
	back, err := sum.AddOrSubtract(b)
	require.NoError(t, err)
	assert.Equal(t, a.Coefficients(), back.Coefficients())
}
