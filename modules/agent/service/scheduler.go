package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-booking-agent/core/completion"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/modules/agent/dto"
)

// Scheduler turns a MeetingProposal into a routing decision.
type Scheduler struct {
	llm completion.Provider
}

func NewScheduler(llm completion.Provider) *Scheduler {
	return &Scheduler{llm: llm}
}

func (s *Scheduler) Decide(ctx context.Context, proposal *dto.MeetingProposal, now time.Time) (*dto.SchedulingDecision, error) {
	raw, err := s.Draft(ctx, proposal, now)
	if err != nil {
		return nil, err
	}
	return s.Parse(raw, proposal)
}

func (s *Scheduler) Draft(ctx context.Context, proposal *dto.MeetingProposal, now time.Time) (string, error) {
	input, err := json.Marshal(proposal)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to encode proposal", err)
	}

	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: schedulerSystemPrompt},
		{Role: completion.RoleUser, Content: fmt.Sprintf("Today is %s.\n%s", today(now, proposal.TimeZone), input)},
	}
	raw, err := s.llm.Complete(ctx, messages)
	if err != nil {
		logger.Error("Scheduler:Draft:Complete:Error", "error", err)
		return "", err
	}
	logger.Debug("Scheduler:Draft:Raw", "raw", raw)
	return raw, nil
}

// Parse validates a raw completion as a SchedulingDecision and applies the
// decision policy against proposal.
func (s *Scheduler) Parse(raw string, proposal *dto.MeetingProposal) (*dto.SchedulingDecision, error) {
	obj, err := completion.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	if action, ok := obj["action"].(string); ok {
		obj["action"] = string(normalizeAction(action))
	}

	var decision dto.SchedulingDecision
	if err := decodeInto(obj, &decision); err != nil {
		return nil, errors.NewAppError(errors.ErrValidation, "the agent could not produce a usable decision", err)
	}
	decision.Reason = strings.TrimSpace(decision.Reason)
	decision.Args.Attendees = cleanEmails(decision.Args.Attendees)

	if !decision.Action.Known() {
		logger.Warn("Scheduler:Parse:UnknownAction", "action", decision.Action)
		return nil, errors.NewAppError(errors.ErrValidation,
			fmt.Sprintf("the agent chose an unknown action %q", decision.Action), nil)
	}

	ApplyPolicy(&decision, proposal)

	if result := decision.Args.Validate(); result.HasError() {
		logger.Warn("Scheduler:Parse:InvalidArgs", "errors", result.Errors)
		return nil, errors.NewAppError(errors.ErrValidation, "the agent could not produce a usable decision", result)
	}
	return &decision, nil
}

func normalizeAction(a string) dto.Action {
	action := dto.Action(strings.ToUpper(strings.TrimSpace(a)))
	if action == dto.ActionCheckFreeBusy {
		return dto.ActionCheckAvailability
	}
	return action
}
