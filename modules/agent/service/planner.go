package service

import (
	"context"
	"strings"
	"time"

	"go-booking-agent/core/completion"
	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/modules/agent/dto"
)

// Planner turns a free-text request into a MeetingProposal.
type Planner struct {
	llm completion.Provider
	now func() time.Time
}

func NewPlanner(llm completion.Provider) *Planner {
	return &Planner{llm: llm, now: time.Now}
}

func (p *Planner) Plan(ctx context.Context, prompt, defaultTZ string) (*dto.MeetingProposal, error) {
	raw, err := p.Draft(ctx, prompt, defaultTZ)
	if err != nil {
		return nil, err
	}
	return p.Parse(raw, defaultTZ)
}

// Draft asks the completion provider for a plan and returns its raw text.
func (p *Planner) Draft(ctx context.Context, prompt, defaultTZ string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.NewAppError(errors.ErrInvalidInput, "prompt is required", nil)
	}
	if defaultTZ == "" {
		defaultTZ = constants.DefaultTimeZone
	}

	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: plannerSystemPrompt(today(p.now(), defaultTZ), defaultTZ)},
		{Role: completion.RoleUser, Content: prompt},
	}
	raw, err := p.llm.Complete(ctx, messages)
	if err != nil {
		logger.Error("Planner:Draft:Complete:Error", "error", err)
		return "", err
	}
	logger.Debug("Planner:Draft:Raw", "raw", raw)
	return raw, nil
}

// Parse extracts and validates a MeetingProposal from a raw completion.
func (p *Planner) Parse(raw, defaultTZ string) (*dto.MeetingProposal, error) {
	obj, err := completion.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var proposal dto.MeetingProposal
	if err := decodeInto(obj, &proposal); err != nil {
		return nil, errors.NewAppError(errors.ErrValidation, "the agent could not produce a usable plan", err)
	}

	proposal.Title = strings.TrimSpace(proposal.Title)
	proposal.Start = strings.TrimSpace(proposal.Start)
	proposal.End = strings.TrimSpace(proposal.End)
	proposal.TimeZone = strings.TrimSpace(proposal.TimeZone)
	if proposal.TimeZone == "" {
		proposal.TimeZone = defaultTZ
	}
	if proposal.TimeZone == "" {
		proposal.TimeZone = constants.DefaultTimeZone
	}
	proposal.Attendees = cleanEmails(proposal.Attendees)

	if result := proposal.Validate(); result.HasError() {
		logger.Warn("Planner:Parse:Invalid", "errors", result.Errors)
		return nil, errors.NewAppError(errors.ErrValidation, "the agent could not produce a usable plan", result)
	}
	return &proposal, nil
}

func cleanEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// today renders now as a date in tz, falling back to UTC for unknown zones.
func today(now time.Time, tz string) string {
	if loc, err := time.LoadLocation(tz); err == nil {
		now = now.In(loc)
	}
	return now.Format("2006-01-02 (Monday)")
}
