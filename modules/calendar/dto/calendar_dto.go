package dto

import "encoding/json"

// Conference and notification choices accepted by create_event.
const (
	ConferenceGoogleMeet = "google_meet"
	ConferenceNone       = "none"

	SendUpdatesAll          = "all"
	SendUpdatesExternalOnly = "externalOnly"
	SendUpdatesNone         = "none"
)

// ========== Tool protocol ==========

type ToolCallRequest struct {
	Name      string         `json:"name" validate:"required"`
	Arguments map[string]any `json:"arguments"`
}

type ToolCallResponse struct {
	Content any `json:"content"`
}

type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type ToolListResponse struct {
	Tools []ToolDescriptor `json:"tools"`
}

// ========== Free/Busy ==========

type AvailabilityRequest struct {
	Start    string `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00" jsonschema:"window start, RFC 3339 with offset"`
	End      string `json:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00" jsonschema:"window end, RFC 3339 with offset"`
	TimeZone string `json:"time_zone" validate:"required,timezone" jsonschema:"IANA time zone such as America/Los_Angeles"`
}

// TimeSlot is a busy period, RFC3339 on both ends.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	Free bool       `json:"free"`
	Busy []TimeSlot `json:"busy"`
}

// ========== Events ==========

type CreateEventRequest struct {
	Title       string   `json:"title" validate:"required" jsonschema:"event summary"`
	Description string   `json:"description,omitempty" jsonschema:"event description"`
	Start       string   `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00" jsonschema:"start, RFC 3339 with offset"`
	End         string   `json:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00" jsonschema:"end, RFC 3339 with offset"`
	Attendees   []string `json:"attendees,omitempty" validate:"dive,email" jsonschema:"attendee email addresses"`
	TimeZone    string   `json:"time_zone" validate:"required,timezone" jsonschema:"IANA time zone"`
	SendUpdates string   `json:"send_updates,omitempty" validate:"omitempty,oneof=all externalOnly none" jsonschema:"all, externalOnly or none"`
	Conference  string   `json:"conference,omitempty" validate:"omitempty,oneof=google_meet none" jsonschema:"google_meet or none"`
}

type CreateEventResponse struct {
	EventID            string   `json:"event_id"`
	EventURL           string   `json:"event_url"`
	ConferenceLink     string   `json:"conference_link,omitempty"`
	AttendeesConfirmed []string `json:"attendees_confirmed"`
}

// ========== OAuth ==========

type OAuthCallbackResponse struct {
	Message      string `json:"message"`
	RefreshToken string `json:"refresh_token"`
	Stored       bool   `json:"stored"`
}
