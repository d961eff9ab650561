package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	agentDto "go-booking-agent/modules/agent/dto"
	"go-booking-agent/modules/booking/dto"
)

const confirmHint = `POST /a2a/confirm with {"token":"<confirm_token>"}`

type PlannerStage interface {
	Draft(ctx context.Context, prompt, defaultTZ string) (string, error)
	Parse(raw, defaultTZ string) (*agentDto.MeetingProposal, error)
}

type SchedulerStage interface {
	Draft(ctx context.Context, proposal *agentDto.MeetingProposal, now time.Time) (string, error)
	Parse(raw string, proposal *agentDto.MeetingProposal) (*agentDto.SchedulingDecision, error)
}

type TokenCodec interface {
	Issue(payload map[string]any, ttl time.Duration) (string, error)
	Verify(token string) (map[string]any, error)
}

// Redeemer marks a confirmation token as used. Optional.
type Redeemer interface {
	Redeem(ctx context.Context, token string) error
}

type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

type Deps struct {
	Planner   PlannerStage
	Scheduler SchedulerStage
	Calendar  CalendarProvider
	Codec     TokenCodec
	Guard     Redeemer
	Assistant Responder

	TokenTTL        time.Duration
	DefaultTimeZone string
}

// Orchestrator drives propose (plan, decide, check availability, issue token)
// and confirm (verify token, create event). It keeps no state between calls.
type Orchestrator struct {
	deps Deps
	now  func() time.Time
}

func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = constants.ConfirmTokenTTL
	}
	if deps.DefaultTimeZone == "" {
		deps.DefaultTimeZone = constants.DefaultTimeZone
	}
	return &Orchestrator{deps: deps, now: time.Now}
}

func (o *Orchestrator) Propose(ctx context.Context, req *dto.ProposeRequest) (*dto.ProposeResponse, error) {
	tz := req.TimeZone
	if tz == "" {
		tz = o.deps.DefaultTimeZone
	}

	logger.Info("Orchestrator:Propose:Planning", "time_zone", tz)
	raw, err := o.deps.Planner.Draft(ctx, req.Prompt, tz)
	if err != nil {
		return nil, err
	}
	proposal, err := o.deps.Planner.Parse(raw, tz)
	if err != nil {
		logger.Warn("Orchestrator:Propose:Planning:Rejected", "error", err)
		return nil, err
	}
	if proposal.TimeZone == "" {
		proposal.TimeZone = tz
	}

	logger.Info("Orchestrator:Propose:Deciding", "title", proposal.Title, "attendees", len(proposal.Attendees))
	raw, err = o.deps.Scheduler.Draft(ctx, proposal, o.now())
	if err != nil {
		return nil, err
	}
	decision, err := o.deps.Scheduler.Parse(raw, proposal)
	if err != nil {
		logger.Warn("Orchestrator:Propose:Deciding:Rejected", "error", err)
		return nil, err
	}

	switch decision.Action {
	case agentDto.ActionAskUser:
		logger.Info("Orchestrator:Propose:NeedsInput", "question", decision.Reason)
		return &dto.ProposeResponse{
			Status:   dto.StatusNeedsInput,
			Question: decision.Reason,
			Proposal: proposal,
			Decision: decision,
		}, nil
	case agentDto.ActionCheckAvailability, agentDto.ActionBook:
		// BOOK is never a direct write: it goes through the same availability
		// check and confirmation token as CHECK_AVAILABILITY.
	default:
		logger.Error("Orchestrator:Propose:UnknownAction", "action", decision.Action)
		return nil, errors.NewAppError(errors.ErrUnknownAction,
			fmt.Sprintf("scheduler returned unknown action %q", decision.Action), nil)
	}

	args := decision.Args
	if missing := args.Missing(); len(missing) > 0 {
		return nil, errors.NewAppError(errors.ErrValidation,
			fmt.Sprintf("decision is missing %v", missing), nil)
	}

	logger.Info("Orchestrator:Propose:CheckingAvailability", "start", args.Start, "end", args.End, "time_zone", args.TimeZone)
	availability, err := o.deps.Calendar.CheckAvailability(ctx, args)
	if err != nil {
		logger.Error("Orchestrator:Propose:CheckAvailability:Error", "error", err)
		return nil, err
	}

	resp := &dto.ProposeResponse{
		Availability: availability,
		ProposedArgs: &args,
		Reason:       decision.Reason,
	}
	if !availability.Free {
		logger.Info("Orchestrator:Propose:Busy", "busy_intervals", len(availability.Busy))
		resp.Status = dto.StatusBusy
		resp.Next = "Pick a different time or modify the prompt."
		return resp, nil
	}

	payload, err := toPayload(args)
	if err != nil {
		return nil, err
	}
	tok, err := o.deps.Codec.Issue(payload, o.deps.TokenTTL)
	if err != nil {
		logger.Error("Orchestrator:Propose:IssueToken:Error", "error", err)
		return nil, err
	}

	logger.Info("Orchestrator:Propose:TokenIssued", "ttl", o.deps.TokenTTL)
	resp.Status = dto.StatusFree
	resp.ConfirmToken = tok
	resp.Next = confirmHint
	return resp, nil
}

func (o *Orchestrator) Confirm(ctx context.Context, req *dto.ConfirmRequest) (*dto.ConfirmResponse, error) {
	payload, err := o.deps.Codec.Verify(req.Token)
	if err != nil {
		logger.Warn("Orchestrator:Confirm:Verify:Rejected", "error", err)
		return nil, err
	}

	args, err := fromPayload(payload)
	if err != nil {
		return nil, err
	}

	if o.deps.Guard != nil {
		if err := o.deps.Guard.Redeem(ctx, req.Token); err != nil {
			return nil, err
		}
	}

	if req.SendUpdates != "" {
		args.SendUpdates = req.SendUpdates
	}
	if args.SendUpdates == "" {
		args.SendUpdates = constants.DefaultSendUpdates
	}
	if args.Conference == "" {
		args.Conference = constants.DefaultConference
	}
	if args.Title == "" {
		args.Title = constants.DefaultTitle
	}

	if result := args.Validate(); result.HasError() || len(args.Missing()) > 0 {
		logger.Error("Orchestrator:Confirm:InvalidArgs", "errors", result.Errors, "missing", args.Missing())
		return nil, errors.NewAppError(errors.ErrValidation, "token carries unusable booking parameters", result)
	}

	logger.Info("Orchestrator:Confirm:CreatingEvent", "start", args.Start, "attendees", len(args.Attendees), "send_updates", args.SendUpdates)
	booked, err := o.deps.Calendar.CreateEvent(ctx, args)
	if err != nil {
		logger.Error("Orchestrator:Confirm:CreateEvent:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrBookingRejected, "Booking failed", err)
	}

	logger.Info("Orchestrator:Confirm:Booked", "event_id", booked.EventID)
	return &dto.ConfirmResponse{Booked: booked, Args: args}, nil
}

// DryRun runs both stages and reports their raw and parsed output. It never
// touches the calendar and never issues a token.
func (o *Orchestrator) DryRun(ctx context.Context, req *dto.ProposeRequest) (*dto.DryRunResponse, error) {
	tz := req.TimeZone
	if tz == "" {
		tz = o.deps.DefaultTimeZone
	}

	raw, err := o.deps.Planner.Draft(ctx, req.Prompt, tz)
	if err != nil {
		return nil, err
	}
	resp := &dto.DryRunResponse{Planner: agentDto.StageTrace{Raw: raw}}
	proposal, err := o.deps.Planner.Parse(raw, tz)
	if err != nil {
		resp.Planner.Error = err.Error()
		return resp, nil
	}
	resp.Planner.Parsed = proposal

	raw, err = o.deps.Scheduler.Draft(ctx, proposal, o.now())
	if err != nil {
		return nil, err
	}
	resp.Scheduler = &agentDto.StageTrace{Raw: raw}
	decision, err := o.deps.Scheduler.Parse(raw, proposal)
	if err != nil {
		resp.Scheduler.Error = err.Error()
		return resp, nil
	}
	resp.Scheduler.Parsed = decision
	return resp, nil
}

func (o *Orchestrator) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	reply, err := o.deps.Assistant.Reply(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	return &dto.ChatResponse{Reply: reply}, nil
}

func toPayload(args agentDto.BookingArgs) (map[string]any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode booking args", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode booking args", err)
	}
	return payload, nil
}

func fromPayload(payload map[string]any) (agentDto.BookingArgs, error) {
	var args agentDto.BookingArgs
	raw, err := json.Marshal(payload)
	if err == nil {
		err = json.Unmarshal(raw, &args)
	}
	if err != nil {
		return args, errors.NewAppError(errors.ErrValidation, "token carries unusable booking parameters", err)
	}
	return args, nil
}
