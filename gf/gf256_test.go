package gf

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestNewQRCodeField_ExpLogAreInverses(t *testing.T) {
	field := NewQRCodeField()
	for e := 0; e < 255; e++ {
		v := field.Exp(e)
		if v == 0 {
			continue
		}
		assert.Equal(t, e, field.Log(v), "log(exp(%d)) should round-trip", e)
	}
}

func TestField_Exp_WrapsModulo255(t *testing.T) {
	field := NewQRCodeField()
	assert.Equal(t, field.Exp(0), field.Exp(255))
	assert.Equal(t, field.Exp(10), field.Exp(10+255))
}

func TestField_Exp_NegativeExponent(t *testing.T) {
	field := NewQRCodeField()
	assert.Equal(t, field.Exp(254), field.Exp(-1))
}

func TestField_Multiply_ZeroAnnihilates(t *testing.T) {
	field := NewQRCodeField()
	assert.Equal(t, byte(0), field.Multiply(0, 42))
	assert.Equal(t, byte(0), field.Multiply(200, 0))
}

func TestField_Multiply_MatchesExpLog(t *testing.T) {
	field := NewQRCodeField()
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			got := field.Multiply(byte(a), byte(b))
			want := field.Exp(field.Log(byte(a)) + field.Log(byte(b)))
			assert.Equal(t, want, got, "a=%d b=%d", a, b)
		}
	}
}

func TestField_Add_IsXOR(t *testing.T) {
	field := NewQRCodeField()
	assert.Equal(t, byte(0x0F^0xF0), field.Add(0x0F, 0xF0))
	assert.Equal(t, byte(0), field.Add(77, 77))
}

func TestField_Inverse_RoundTrips(t *testing.T) {
	field := NewQRCodeField()
	for a := 1; a < 256; a++ {
		inv, err := field.Inverse(byte(a))
		require.NoError(t, err)
		assert.Equal(t, byte(1), field.Multiply(byte(a), inv), "a=%d", a)
	}
}

func TestField_Inverse_ZeroIsInvalidArgument(t *testing.T) {
	field := NewQRCodeField()
	_, err := field.Inverse(0)
	assert.Error(t, err)
}
