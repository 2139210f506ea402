package services

import "strings"

// codeLength is the number of digits in SMS and TOTP codes.
const codeLength = 6

// digitWords maps spoken number words, including common transcription
// homophones, to digits.
var digitWords = map[string]byte{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "won": '1',
	"two": '2', "to": '2', "too": '2',
	"three": '3', "tree": '3',
	"four": '4', "for": '4', "fore": '4',
	"five": '5', "six": '6', "sic": '6',
	"seven": '7', "eight": '8', "ate": '8',
	"nine": '9', "niner": '9',
}

// DecodeSpokenDigits extracts a six digit code from transcribed speech or
// keypad input. Tokens are split on whitespace, commas, periods and hyphens;
// each token is either a run of digits, a number word, or ignored. Decoding
// succeeds only when exactly six digits result.
func DecodeSpokenDigits(input string) (string, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', ',', '.', '-':
			return true
		}
		return false
	})

	var digits []byte
	for _, tok := range tokens {
		if isDigits(tok) {
			digits = append(digits, tok...)
			continue
		}
		if d, ok := digitWords[tok]; ok {
			digits = append(digits, d)
		}
	}

	if len(digits) != codeLength {
		return "", false
	}
	return string(digits), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// keypadDigits keeps only the digits of keypad input such as "123456#".
func keypadDigits(input string) string {
	var b strings.Builder
	for i := 0; i < len(input); i++ {
		if input[i] >= '0' && input[i] <= '9' {
			b.WriteByte(input[i])
		}
	}
	return b.String()
}
