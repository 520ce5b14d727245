package models

import (
	"fmt"
	"strings"
)

type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneFriendly     Tone = "Friendly"
	ToneUrgent       Tone = "Urgent"
	ToneInformative  Tone = "Informative"
	TonePlayful      Tone = "Playful"
)

// Tones lists every supported tone in display order.
var Tones = []Tone{
	ToneProfessional,
	ToneFriendly,
	ToneUrgent,
	ToneInformative,
	TonePlayful,
}

// ParseTone matches s against the supported tones, ignoring case.
func ParseTone(s string) (Tone, error) {
	s = strings.TrimSpace(s)
	for _, t := range Tones {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

// EmailInputs is the four-field description every generation prompt is built from.
type EmailInputs struct {
	Goal     string `json:"goal"`
	Audience string `json:"audience"`
	Message  string `json:"message"`
	Tone     Tone   `json:"tone"`
}

// Validate normalizes the tone and reports blank fields keyed by their JSON name.
func (in *EmailInputs) Validate() map[string]string {
	fields := map[string]string{}

	if strings.TrimSpace(in.Goal) == "" {
		fields["goal"] = "Goal is required"
	}
	if strings.TrimSpace(in.Audience) == "" {
		fields["audience"] = "Audience is required"
	}
	if strings.TrimSpace(in.Message) == "" {
		fields["message"] = "Message is required"
	}

	tone, err := ParseTone(string(in.Tone))
	if err != nil {
		fields["tone"] = "Tone must be one of Professional, Friendly, Urgent, Informative, Playful"
	} else {
		in.Tone = tone
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// TextInput carries free text for the spam check and thread summary actions.
type TextInput struct {
	Text string `json:"text"`
}

// RefineRequest is a freeform instruction applied to the current draft.
type RefineRequest struct {
	Instruction string `json:"instruction"`
}
