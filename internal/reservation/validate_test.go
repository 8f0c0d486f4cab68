package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVehicle(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"ba 2 pa 4455", "BA 2 PA 4455", true},
		{"  KA-01   AB-1234 ", "KA-01 AB-1234", true},
		{"AB1", "AB1", true},
		{"AB", "", false},
		{"---", "", false},
		{"ABCDEFGHIJKLMNOP", "", false},
		{"AB_123", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeVehicle(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeContact(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9801234567", "9801234567", true},
		{"+977 (980) 123-4567", "9779801234567", true},
		{"980.123.4567", "9801234567", true},
		{"980123456", "", false},
		{"1234567890123456", "", false},
		{"98012+34567", "", false},
		{"call me", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeContact(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
