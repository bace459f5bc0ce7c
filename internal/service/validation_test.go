package service

import (
	"testing"

	"kiln_studio/internal/apperr"
	"kiln_studio/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateEvent(t *testing.T) {
	high := models.Ptr(models.SwitchHigh)
	tests := []struct {
		name    string
		p       EventParams
		wantErr bool
	}{
		{name: "switch on", p: EventParams{EventType: models.EventSwitchOn, SwitchIndex: models.Ptr(0), NewSwitchPosition: high}},
		{name: "switch missing index", p: EventParams{EventType: models.EventSwitchOn, NewSwitchPosition: high}, wantErr: true},
		{name: "switch negative index", p: EventParams{EventType: models.EventSwitchOff, SwitchIndex: models.Ptr(-1), NewSwitchPosition: high}, wantErr: true},
		{name: "switch bad position", p: EventParams{EventType: models.EventSwitchOff, SwitchIndex: models.Ptr(1), NewSwitchPosition: models.Ptr(models.SwitchPosition("MAX"))}, wantErr: true},
		{name: "temp reading", p: EventParams{EventType: models.EventTempReading, PyrometerTemp: models.Ptr(0.0)}},
		{name: "temp reading missing", p: EventParams{EventType: models.EventTempReading}, wantErr: true},
		{name: "note", p: EventParams{EventType: models.EventNote, NoteText: models.Ptr("cone 5 down")}},
		{name: "note blank", p: EventParams{EventType: models.EventNote, NoteText: models.Ptr(" \n")}, wantErr: true},
		{name: "lid open", p: EventParams{EventType: models.EventLidOpen}},
		{name: "unknown type", p: EventParams{EventType: "KILN_SITTER"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvent(tt.p)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrBadRequest)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_appendNotes(t *testing.T) {
	assert.Nil(t, appendNotes(nil, nil))
	assert.Equal(t, "a", *appendNotes(models.Ptr("a"), models.Ptr("  ")))
	assert.Equal(t, "b", *appendNotes(nil, models.Ptr("b")))
	assert.Equal(t, "a\n\nb", *appendNotes(models.Ptr("a"), models.Ptr("b")))
}
