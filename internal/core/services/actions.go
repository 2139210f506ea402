package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// actionMarker matches "[NAME]" or "[NAME:payload]" in generated agent text.
var actionMarker = regexp.MustCompile(`\[([A-Z_]+)(?::([^\]]*))?\]`)

var markerKinds = map[string]domain.ActionKind{
	"SPEAK":             domain.ActionSpeak,
	"SEND_SMS":          domain.ActionSendSMS,
	"WAIT_FOR_SMS_CODE": domain.ActionWaitForSMSCode,
	"WAIT_FOR_TOTP":     domain.ActionWaitForTOTP,
	"SCHEDULE_CALLBACK": domain.ActionScheduleCallback,
	"HANGUP":            domain.ActionHangup,
}

// ParseActionMarkers extracts action markers from generated agent text.
// It returns the text with recognised markers removed and the actions in
// the order they appeared. Unknown bracketed text is left untouched.
func ParseActionMarkers(text string) (string, []domain.Action) {
	var actions []domain.Action
	clean := actionMarker.ReplaceAllStringFunc(text, func(m string) string {
		parts := actionMarker.FindStringSubmatch(m)
		kind, ok := markerKinds[parts[1]]
		if !ok {
			return m
		}
		actions = append(actions, domain.Action{Kind: kind, Payload: strings.TrimSpace(parts[2])})
		return " "
	})
	return strings.Join(strings.Fields(clean), " "), actions
}
