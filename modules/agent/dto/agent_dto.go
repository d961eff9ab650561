package dto

import (
	"strings"
	"time"

	"go-booking-agent/core/validator"
)

// MeetingProposal is what the planner extracts from a free-text request.
type MeetingProposal struct {
	Title     string   `json:"title"`
	Start     string   `json:"start" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	End       string   `json:"end" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Attendees []string `json:"attendees" validate:"dive,email"`
	TimeZone  string   `json:"time_zone" validate:"required,timezone"`
}

type Action string

const (
	ActionAskUser           Action = "ASK_USER"
	ActionCheckAvailability Action = "CHECK_AVAILABILITY"
	ActionBook              Action = "BOOK"

	// ActionCheckFreeBusy is the older spelling of ActionCheckAvailability.
	ActionCheckFreeBusy Action = "CHECK_FREEBUSY"
)

func (a Action) Known() bool {
	switch a {
	case ActionAskUser, ActionCheckAvailability, ActionBook:
		return true
	}
	return false
}

// BookingArgs are the parameters that travel from the scheduler decision,
// through the confirmation token, to the calendar create_event tool.
type BookingArgs struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	End         string   `json:"end,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Attendees   []string `json:"attendees,omitempty" validate:"dive,email"`
	TimeZone    string   `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	SendUpdates string   `json:"send_updates,omitempty" validate:"omitempty,oneof=all externalOnly none"`
	Conference  string   `json:"conference,omitempty" validate:"omitempty,oneof=google_meet none"`
}

type SchedulingDecision struct {
	Action Action      `json:"action" validate:"required,oneof=ASK_USER CHECK_AVAILABILITY BOOK"`
	Args   BookingArgs `json:"args"`
	Reason string      `json:"reason"`
}

// Missing lists the fields a calendar call cannot do without.
func (a BookingArgs) Missing() []string {
	var missing []string
	if strings.TrimSpace(a.Start) == "" {
		missing = append(missing, "start")
	}
	if strings.TrimSpace(a.End) == "" {
		missing = append(missing, "end")
	}
	if strings.TrimSpace(a.TimeZone) == "" {
		missing = append(missing, "time_zone")
	}
	if len(a.Attendees) == 0 {
		missing = append(missing, "attendees")
	}
	return missing
}

// CheckWindow validates field formats and, when both ends are present, that start < end.
func CheckWindow(start, end string, result *validator.ValidationResult) {
	if start == "" || end == "" {
		return
	}
	s, errS := time.Parse(time.RFC3339, start)
	e, errE := time.Parse(time.RFC3339, end)
	if errS != nil || errE != nil {
		return
	}
	if !s.Before(e) {
		result.Add("end", "must be after start")
	}
}

// Validate checks formats and ordering. Completeness is checked separately with Missing.
func (a BookingArgs) Validate() *validator.ValidationResult {
	result := validator.Struct(a)
	CheckWindow(a.Start, a.End, result)
	return result
}

func (p MeetingProposal) Validate() *validator.ValidationResult {
	result := validator.Struct(p)
	CheckWindow(p.Start, p.End, result)
	return result
}

// StageTrace is the raw completion and what was parsed from it.
type StageTrace struct {
	Raw    string `json:"raw"`
	Parsed any    `json:"parsed,omitempty"`
	Error  string `json:"error,omitempty"`
}
