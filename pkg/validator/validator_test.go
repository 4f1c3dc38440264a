package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `validate:"username"`
}

type reservation struct {
	CustomerID   int `validate:"required"`
	SerialNumber int `validate:"serial"`
}

func TestUsernameTag(t *testing.T) {
	cases := map[string]bool{
		"abc":                               true,
		"Test_123":                          true,
		"ab":                                false,
		"abcdefghijklmnopqrstuvwxyz012345":  true,
		"abcdefghijklmnopqrstuvwxyz0123456": false,
		"has space":                         false,
		"dash-name":                         false,
	}
	for name, ok := range cases {
		errs := ValidateStruct(signup{Username: name})
		assert.Equal(t, ok, errs == nil, name)
		assert.Equal(t, ok, IsUsername(name), name)
	}
}

func TestSerialTag(t *testing.T) {
	assert.Nil(t, ValidateStruct(reservation{CustomerID: 1, SerialNumber: 1}))

	errs := ValidateStruct(reservation{CustomerID: 1, SerialNumber: 0})
	require.Len(t, errs, 1)
	assert.Equal(t, "reservation.SerialNumber", errs[0].FailedField)
	assert.Equal(t, "serial", errs[0].Tag)
}

func TestJoin(t *testing.T) {
	errs := ValidateStruct(reservation{})
	require.Len(t, errs, 2)
	assert.Equal(t, "reservation.CustomerID failed on required; reservation.SerialNumber failed on serial", Join(errs))
}
