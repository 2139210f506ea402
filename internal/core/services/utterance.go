package services

import (
	"regexp"
	"strings"
	"unicode"
)

// Consent is the caller's answer to the consent question.
type Consent int

// Consent outcomes.
const (
	ConsentAmbiguous Consent = iota
	ConsentAffirmative
	ConsentNegative
)

// String returns the string representation.
func (c Consent) String() string {
	switch c {
	case ConsentAffirmative:
		return "affirmative"
	case ConsentNegative:
		return "negative"
	default:
		return "ambiguous"
	}
}

var (
	affirmativePhrases = []string{
		"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "okey", "alright", "all right",
		"fine", "perfect", "go ahead", "go for it", "sounds good", "please", "of course",
	}
	negativePhrases    = []string{
		"no", "not", "can't", "cannot", "busy", "bad time", "later", "call back", "not now", "don't", "nope",
	}
	sensitivePhrases = []string{"balance", "account number", "status"}
	resendPhrases    = []string{"resend", "send again", "send it again", "new code", "another code"}
)

// callbackTime matches a time reference such as "tomorrow", "friday",
// "3pm", "10:30 am", "in 20 minutes" or "this evening".
var callbackTime = regexp.MustCompile(`\b(` +
	`today|tonight|tomorrow|weekend|next week|` +
	`monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
	`morning|afternoon|evening|noon|midday|` +
	`\d{1,2}(:\d{2})?\s?(am|pm)|` +
	`\d{1,2}\s?o'?clock|` +
	`in (an? |\d+ )(minutes?|hours?|days?)` +
	`)\b`)

// phraseText lowercases s, keeps letters, digits and apostrophes, and pads
// with spaces so phrases can be matched on word boundaries.
func phraseText(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return r
		}
		return ' '
	}, s)
	return " " + strings.Join(strings.Fields(cleaned), " ") + " "
}

func containsPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, " "+p+" ") {
			return true
		}
	}
	return false
}

// ClassifyConsent matches an utterance against the affirmative and negative
// phrase lists. When both match, the answer is negative.
func ClassifyConsent(utterance string) Consent {
	text := phraseText(utterance)
	switch {
	case containsPhrase(text, negativePhrases):
		return ConsentNegative
	case containsPhrase(text, affirmativePhrases):
		return ConsentAffirmative
	default:
		return ConsentAmbiguous
	}
}

// CallbackTime returns the time reference in an utterance, if any.
func CallbackTime(utterance string) (string, bool) {
	m := callbackTime.FindString(strings.ToLower(utterance))
	return m, m != ""
}

// IsSensitiveRequest reports whether the caller asks for account balance,
// account number or status.
func IsSensitiveRequest(utterance string) bool {
	return containsPhrase(phraseText(utterance), sensitivePhrases)
}

// isResendRequest reports whether the caller asks for a new SMS code.
func isResendRequest(utterance string) bool {
	return containsPhrase(phraseText(utterance), resendPhrases)
}
