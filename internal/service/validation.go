package service

import (
	"strings"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"
)

// ValidateEvent rejects event payloads missing the fields their type needs.
// Switch events need a non-negative switch index and a known position,
// TEMP_READING needs a temperature and NOTE needs text.
func ValidateEvent(p EventParams) error {
	if !p.EventType.Valid() {
		return apperr.BadRequest("unknown event type %q", p.EventType)
	}
	switch {
	case p.EventType.IsSwitch():
		if p.SwitchIndex == nil || *p.SwitchIndex < 0 {
			return apperr.BadRequest("%s needs a non-negative switchIndex", p.EventType)
		}
		if p.NewSwitchPosition == nil || !p.NewSwitchPosition.Valid() {
			return apperr.BadRequest("%s needs a valid newSwitchPosition", p.EventType)
		}
	case p.EventType == models.EventTempReading:
		if p.PyrometerTemp == nil {
			return apperr.BadRequest("TEMP_READING needs pyrometerTemp")
		}
	case p.EventType == models.EventNote:
		if p.NoteText == nil || strings.TrimSpace(*p.NoteText) == "" {
			return apperr.BadRequest("NOTE needs noteText")
		}
	}
	return nil
}

func eventParamsOf(e models.FiringEvent) EventParams {
	ts := e.Timestamp
	return EventParams{
		EventType:         e.EventType,
		Timestamp:         &ts,
		SwitchIndex:       e.SwitchIndex,
		NewSwitchPosition: e.NewSwitchPosition,
		PyrometerTemp:     e.PyrometerTemp,
		NoteText:          e.NoteText,
	}
}

// blank reports whether an optional string is absent or only whitespace.
func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
