package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"+7 (999) 123-45-67", "79991234567"},
		{"89991234567", "79991234567"},
		{"79991234567", "79991234567"},
		{"8 999 123 45 67", "79991234567"},
		{"", ""},
		{"abc", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, NormalizePhone(tc.in), "input %q", tc.in)
	}
}

func TestSamePhone(t *testing.T) {
	assert.True(t, SamePhone("+7 (999) 123-45-67", "89991234567"))
	assert.True(t, SamePhone("79991234567", "+79991234567"))
	assert.False(t, SamePhone("79991234567", "79991234568"))
	assert.False(t, SamePhone("", ""))
}
