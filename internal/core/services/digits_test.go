package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSpokenDigits(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"number words", "one two three four five six", "123456", true},
		{"digits in a sentence", "my code is 4 8 3 9 2 1", "483921", true},
		{"digit run", "123456", "123456", true},
		{"homophones", "oh won too tree fore sic", "012346", true},
		{"mixed words and digits", "nine, 8-seven. 6 five ate", "987658", true},
		{"split runs", "12 34 56", "123456", true},
		{"niner and zero", "niner zero o eight ate five", "900885", true},
		{"case insensitive", "ONE Two THREE four FIVE six", "123456", true},
		{"only five digits", "one two three four five", "", false},
		{"too many digits", "1234567", "", false},
		{"no digits", "I don't have it yet", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeSpokenDigits(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeypadDigits(t *testing.T) {
	assert.Equal(t, "123456", keypadDigits("123456#"))
	assert.Equal(t, "123456", keypadDigits("*12 34-56"))
	assert.Equal(t, "", keypadDigits("#"))
}
