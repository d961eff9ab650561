package dto

import (
	agentDto "go-booking-agent/modules/agent/dto"
)

const (
	StatusNeedsInput = "needs_input"
	StatusBusy       = "busy"
	StatusFree       = "free"
)

// ========== Propose ==========

type ProposeRequest struct {
	Prompt   string `json:"prompt" validate:"required"`
	TimeZone string `json:"time_zone" validate:"omitempty,timezone"`
}

type ProposeResponse struct {
	Status       string                       `json:"status"`
	Question     string                       `json:"question,omitempty"`
	Proposal     *agentDto.MeetingProposal    `json:"proposal,omitempty"`
	Decision     *agentDto.SchedulingDecision `json:"decision,omitempty"`
	Availability *Availability                `json:"availability,omitempty"`
	ProposedArgs *agentDto.BookingArgs        `json:"proposed_args,omitempty"`
	Reason       string                       `json:"reason,omitempty"`
	ConfirmToken string                       `json:"confirm_token,omitempty"`
	Next         string                       `json:"next,omitempty"`
}

// ========== Confirm ==========

type ConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	SendUpdates string `json:"send_updates" validate:"omitempty,oneof=all externalOnly none"`
}

type ConfirmResponse struct {
	Booked *BookingResult       `json:"booked"`
	Args   agentDto.BookingArgs `json:"args"`
}

// ========== Calendar tool results ==========

type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Availability struct {
	Free bool       `json:"free"`
	Busy []Interval `json:"busy"`
}

type BookingResult struct {
	EventID            string   `json:"event_id"`
	EventURL           string   `json:"event_url"`
	ConferenceLink     string   `json:"conference_link,omitempty"`
	AttendeesConfirmed []string `json:"attendees_confirmed"`
}

// ========== Dry run / chat ==========

type DryRunResponse struct {
	Planner   agentDto.StageTrace  `json:"planner"`
	Scheduler *agentDto.StageTrace `json:"scheduler,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
