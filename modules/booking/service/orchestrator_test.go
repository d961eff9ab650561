package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go-booking-agent/core/cache"
	"go-booking-agent/core/completion"
	"go-booking-agent/core/config"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/token"
	agentDto "go-booking-agent/modules/agent/dto"
	agentService "go-booking-agent/modules/agent/service"
	"go-booking-agent/modules/booking/dto"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	plannerComplete = `{"title":"Sync","start":"2026-10-20T15:00:00-07:00","end":"2026-10-20T15:30:00-07:00","attendees":["alice@example.com"],"time_zone":"America/Los_Angeles"}`
	schedulerCheck  = `{"action":"CHECK_AVAILABILITY","args":{},"reason":"All fields present."}`
)

type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *scriptedLLM) Complete(_ context.Context, _ []completion.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.replies) == 0 {
		return "", errors.NewAppError(errors.ErrProvider, "script exhausted", nil)
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type fakeCalendar struct {
	availability *dto.Availability
	checkErr     error
	createErr    error

	checked []agentDto.BookingArgs
	created []agentDto.BookingArgs
}

func (f *fakeCalendar) CheckAvailability(_ context.Context, args agentDto.BookingArgs) (*dto.Availability, error) {
	f.checked = append(f.checked, args)
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.availability, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, args agentDto.BookingArgs) (*dto.BookingResult, error) {
	f.created = append(f.created, args)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dto.BookingResult{
		EventID:            "evt1",
		EventURL:           "https://calendar.google.com/event?eid=evt1",
		ConferenceLink:     "https://meet.google.com/abc-defg-hij",
		AttendeesConfirmed: args.Attendees,
	}, nil
}

func newTestOrchestrator(llm completion.Provider, cal CalendarProvider, guard Redeemer) *Orchestrator {
	o := NewOrchestrator(Deps{
		Planner:   agentService.NewPlanner(llm),
		Scheduler: agentService.NewScheduler(llm),
		Calendar:  cal,
		Codec:     token.NewCodec("test-secret"),
		Guard:     guard,
		Assistant: agentService.NewAssistant(llm),
	})
	o.now = func() time.Time { return time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC) }
	return o
}

func TestProposeFreeThenConfirm(t *testing.T) {
	llm := &scriptedLLM{replies: []string{plannerComplete, schedulerCheck}}
	cal := &fakeCalendar{availability: &dto.Availability{Free: true, Busy: []dto.Interval{}}}
	o := newTestOrchestrator(llm, cal, nil)
	ctx := context.Background()

	resp, err := o.Propose(ctx, &dto.ProposeRequest{Prompt: "Schedule a 30-minute sync with alice@example.com tomorrow at 3pm Pacific"})
	require.NoError(t, err)

	assert.Equal(t, dto.StatusFree, resp.Status)
	require.NotEmpty(t, resp.ConfirmToken)
	assert.Equal(t, 1, strings.Count(resp.ConfirmToken, "."))
	assert.Contains(t, resp.Next, "/a2a/confirm")
	require.NotNil(t, resp.ProposedArgs)
	assert.Equal(t, "Sync", resp.ProposedArgs.Title)
	assert.Equal(t, "all", resp.ProposedArgs.SendUpdates)
	assert.Equal(t, "google_meet", resp.ProposedArgs.Conference)
	require.Len(t, cal.checked, 1)
	assert.Equal(t, "2026-10-20T15:00:00-07:00", cal.checked[0].Start)
	assert.Empty(t, cal.created, "propose never writes")

	confirmed, err := o.Confirm(ctx, &dto.ConfirmRequest{Token: resp.ConfirmToken})
	require.NoError(t, err)
	assert.Equal(t, "evt1", confirmed.Booked.EventID)
	assert.Equal(t, []string{"alice@example.com"}, confirmed.Booked.AttendeesConfirmed)
	assert.Equal(t, *resp.ProposedArgs, confirmed.Args)
	require.Len(t, cal.created, 1)
	assert.Equal(t, *resp.ProposedArgs, cal.created[0])
}

func TestProposeBusyIssuesNoToken(t *testing.T) {
	llm := &scriptedLLM{replies: []string{plannerComplete, schedulerCheck}}
	cal := &fakeCalendar{availability: &dto.Availability{
		Free: false,
		Busy: []dto.Interval{{Start: "2026-10-20T22:00:00Z", End: "2026-10-20T22:30:00Z"}},
	}}

	resp, err := newTestOrchestrator(llm, cal, nil).Propose(context.Background(), &dto.ProposeRequest{Prompt: "sync tomorrow 3pm"})
	require.NoError(t, err)
	assert.Equal(t, dto.StatusBusy, resp.Status)
	assert.Empty(t, resp.ConfirmToken)
	assert.Len(t, resp.Availability.Busy, 1)
	assert.Equal(t, "Pick a different time or modify the prompt.", resp.Next)
}

func TestProposeMissingAttendeesNeedsInput(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"title":"Sync","start":"2026-10-20T15:00:00-07:00","end":"2026-10-20T15:30:00-07:00","attendees":[],"time_zone":"America/Los_Angeles"}`,
		schedulerCheck,
	}}
	cal := &fakeCalendar{}

	resp, err := newTestOrchestrator(llm, cal, nil).Propose(context.Background(), &dto.ProposeRequest{Prompt: "sync tomorrow 3pm"})
	require.NoError(t, err)
	assert.Equal(t, dto.StatusNeedsInput, resp.Status)
	assert.NotEmpty(t, resp.Question)
	assert.Empty(t, resp.ConfirmToken)
	assert.Empty(t, cal.checked, "no calendar call without attendees")
}

func TestProposeBookGoesThroughConfirmation(t *testing.T) {
	llm := &scriptedLLM{replies: []string{plannerComplete, `{"action":"BOOK","args":{},"reason":"asked to book"}`}}
	cal := &fakeCalendar{availability: &dto.Availability{Free: true}}

	resp, err := newTestOrchestrator(llm, cal, nil).Propose(context.Background(), &dto.ProposeRequest{Prompt: "book it"})
	require.NoError(t, err)
	assert.Equal(t, dto.StatusFree, resp.Status)
	assert.NotEmpty(t, resp.ConfirmToken)
	assert.Len(t, cal.checked, 1)
	assert.Empty(t, cal.created)
}

func TestProposeStageErrorsPropagate(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
		cal     *fakeCalendar
		code    errors.ErrorCode
	}{
		{"planner unparseable", []string{"no json here"}, &fakeCalendar{}, errors.ErrParse},
		{"planner invalid email", []string{`{"title":"x","attendees":["nope"],"time_zone":"UTC"}`}, &fakeCalendar{}, errors.ErrValidation},
		{"scheduler unparseable", []string{plannerComplete, "sure"}, &fakeCalendar{}, errors.ErrParse},
		{"provider down", nil, &fakeCalendar{}, errors.ErrProvider},
		{"calendar down", []string{plannerComplete, schedulerCheck},
			&fakeCalendar{checkErr: errors.NewAppError(errors.ErrProvider, "tool call failed", nil)}, errors.ErrProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{replies: tt.replies}
			_, err := newTestOrchestrator(llm, tt.cal, nil).Propose(context.Background(), &dto.ProposeRequest{Prompt: "x"})
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

type stubScheduler struct{ decision *agentDto.SchedulingDecision }

func (s stubScheduler) Draft(context.Context, *agentDto.MeetingProposal, time.Time) (string, error) {
	return "{}", nil
}

func (s stubScheduler) Parse(string, *agentDto.MeetingProposal) (*agentDto.SchedulingDecision, error) {
	return s.decision, nil
}

func TestProposeUnknownAction(t *testing.T) {
	llm := &scriptedLLM{replies: []string{plannerComplete}}
	cal := &fakeCalendar{}
	o := newTestOrchestrator(llm, cal, nil)
	o.deps.Scheduler = stubScheduler{decision: &agentDto.SchedulingDecision{Action: "CANCEL"}}

	_, err := o.Propose(context.Background(), &dto.ProposeRequest{Prompt: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrUnknownAction))
	assert.Empty(t, cal.checked)
}

func issue(t *testing.T, args map[string]any) string {
	t.Helper()
	tok, err := token.NewCodec("test-secret").Issue(args, 15*time.Minute)
	require.NoError(t, err)
	return tok
}

func TestConfirmOverridesSendUpdates(t *testing.T) {
	cal := &fakeCalendar{}
	o := newTestOrchestrator(&scriptedLLM{}, cal, nil)
	tok := issue(t, map[string]any{
		"title":     "Sync",
		"start":     "2026-10-20T15:00:00-07:00",
		"end":       "2026-10-20T15:30:00-07:00",
		"attendees": []any{"alice@example.com"},
		"time_zone": "America/Los_Angeles",
	})

	resp, err := o.Confirm(context.Background(), &dto.ConfirmRequest{Token: tok, SendUpdates: "none"})
	require.NoError(t, err)
	assert.Equal(t, "none", resp.Args.SendUpdates)
	assert.Equal(t, "google_meet", resp.Args.Conference)
	require.Len(t, cal.created, 1)
	assert.Equal(t, "none", cal.created[0].SendUpdates)
}

func TestConfirmRejectsBadTokens(t *testing.T) {
	cal := &fakeCalendar{}
	o := newTestOrchestrator(&scriptedLLM{}, cal, nil)
	other, err := token.NewCodec("other-secret").Issue(map[string]any{"start": "x"}, time.Minute)
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", "a.b.c", other} {
		_, err := o.Confirm(context.Background(), &dto.ConfirmRequest{Token: tok})
		assert.True(t, errors.HasCode(err, errors.ErrInvalidToken), "token %q", tok)
	}
	assert.Empty(t, cal.created)
}

func TestConfirmRejectsIncompletePayload(t *testing.T) {
	cal := &fakeCalendar{}
	o := newTestOrchestrator(&scriptedLLM{}, cal, nil)

	_, err := o.Confirm(context.Background(), &dto.ConfirmRequest{Token: issue(t, map[string]any{"title": "Sync"})})
	assert.True(t, errors.HasCode(err, errors.ErrValidation))
	assert.Empty(t, cal.created)
}

func TestConfirmCreateFailure(t *testing.T) {
	cal := &fakeCalendar{createErr: errors.NewAppError(errors.ErrProvider, "google said no", nil)}
	o := newTestOrchestrator(&scriptedLLM{}, cal, nil)
	tok := issue(t, map[string]any{
		"start":     "2026-10-20T15:00:00-07:00",
		"end":       "2026-10-20T15:30:00-07:00",
		"attendees": []any{"alice@example.com"},
		"time_zone": "America/Los_Angeles",
	})

	_, err := o.Confirm(context.Background(), &dto.ConfirmRequest{Token: tok})
	ae, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrBookingRejected, ae.Code)
	assert.Equal(t, "Booking failed", ae.Message)
}

func TestConfirmSingleUse(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), config.RedisConfig{Addr: s.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	cal := &fakeCalendar{}
	o := newTestOrchestrator(&scriptedLLM{}, cal, token.NewRedemptionGuard(c))
	tok := issue(t, map[string]any{
		"start":     "2026-10-20T15:00:00-07:00",
		"end":       "2026-10-20T15:30:00-07:00",
		"attendees": []any{"alice@example.com"},
		"time_zone": "America/Los_Angeles",
	})

	_, err = o.Confirm(context.Background(), &dto.ConfirmRequest{Token: tok})
	require.NoError(t, err)
	_, err = o.Confirm(context.Background(), &dto.ConfirmRequest{Token: tok})
	assert.True(t, errors.HasCode(err, errors.ErrTokenRedeemed))
	assert.Len(t, cal.created, 1)
}

func TestDryRun(t *testing.T) {
	llm := &scriptedLLM{replies: []string{plannerComplete, schedulerCheck}}
	cal := &fakeCalendar{}

	resp, err := newTestOrchestrator(llm, cal, nil).DryRun(context.Background(), &dto.ProposeRequest{Prompt: "sync"})
	require.NoError(t, err)
	assert.Equal(t, plannerComplete, resp.Planner.Raw)
	require.NotNil(t, resp.Scheduler)
	assert.Empty(t, resp.Scheduler.Error)
	decision, ok := resp.Scheduler.Parsed.(*agentDto.SchedulingDecision)
	require.True(t, ok)
	assert.Equal(t, agentDto.ActionCheckAvailability, decision.Action)
	assert.Empty(t, cal.checked)
}

func TestDryRunReportsPlannerError(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"nothing useful"}}

	resp, err := newTestOrchestrator(llm, &fakeCalendar{}, nil).DryRun(context.Background(), &dto.ProposeRequest{Prompt: "sync"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Planner.Error)
	assert.Nil(t, resp.Scheduler)
	assert.Equal(t, 1, llm.calls)
}

func TestChat(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"  Hi there.  "}}
	resp, err := newTestOrchestrator(llm, &fakeCalendar{}, nil).Chat(context.Background(), &dto.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there.", resp.Reply)
}
