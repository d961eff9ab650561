package service

import (
	"context"
	"fmt"
	"strings"

	"go-booking-agent/core/config"
	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/utils"
	"go-booking-agent/modules/calendar/dto"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type CalendarService interface {
	CheckAvailability(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.CreateEventResponse, error)
}

// TokenSourceProvider yields credentials for one Google API call.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

type googleCalendarService struct {
	tokens     TokenSourceProvider
	calendarID string
	apiBase    string
}

func NewCalendarService(cfg config.GoogleAPIConfig, tokens TokenSourceProvider) CalendarService {
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &googleCalendarService{
		tokens:     tokens,
		calendarID: calendarID,
		apiBase:    cfg.APIBase,
	}
}

func (s *googleCalendarService) client(ctx context.Context) (*calendar.Service, error) {
	ts, err := s.tokens.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = constants.DefaultTimeout
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if s.apiBase != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(s.apiBase, "/")+"/"))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConfiguration, "failed to create calendar client", err)
	}
	return svc, nil
}

func (s *googleCalendarService) CheckAvailability(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin:  req.Start,
		TimeMax:  req.End,
		TimeZone: req.TimeZone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: s.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		logger.Error("CalendarService:CheckAvailability:FreeBusy:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "FreeBusy failed", err)
	}

	cal, ok := resp.Calendars[s.calendarID]
	if ok && len(cal.Errors) > 0 {
		logger.Error("CalendarService:CheckAvailability:CalendarError", "calendar_id", s.calendarID, "reason", cal.Errors[0].Reason)
		return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("FreeBusy failed: %s", cal.Errors[0].Reason), nil)
	}

	busy := make([]dto.TimeSlot, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		busy = append(busy, dto.TimeSlot{Start: period.Start, End: period.End})
	}
	busy, err = mergeBusySlots(busy)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrProvider, "FreeBusy returned a malformed interval", err)
	}

	logger.Info("CalendarService:CheckAvailability:Done", "busy_intervals", len(busy))
	return &dto.AvailabilityResponse{Free: len(busy) == 0, Busy: busy}, nil
}

func (s *googleCalendarService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.CreateEventResponse, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     req.Title,
		Description: req.Description,
		Start:       &calendar.EventDateTime{DateTime: req.Start, TimeZone: req.TimeZone},
		End:         &calendar.EventDateTime{DateTime: req.End, TimeZone: req.TimeZone},
	}
	for _, email := range req.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	conference := req.Conference
	if conference == "" {
		conference = dto.ConferenceGoogleMeet
	}
	if conference == dto.ConferenceGoogleMeet {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             utils.ConferenceRequestID(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	sendUpdates := req.SendUpdates
	if sendUpdates == "" {
		sendUpdates = dto.SendUpdatesAll
	}

	created, err := svc.Events.Insert(s.calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates(sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		logger.Error("CalendarService:CreateEvent:Insert:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "Events.insert failed", err)
	}

	confirmed := make([]string, 0, len(created.Attendees))
	for _, a := range created.Attendees {
		if a.Email != "" {
			confirmed = append(confirmed, a.Email)
		}
	}

	logger.Info("CalendarService:CreateEvent:Created", "event_id", created.Id, "attendees", len(confirmed), "send_updates", sendUpdates)
	return &dto.CreateEventResponse{
		EventID:            created.Id,
		EventURL:           created.HtmlLink,
		ConferenceLink:     meetLink(created),
		AttendeesConfirmed: confirmed,
	}, nil
}

// meetLink prefers the video entry point and falls back to hangoutLink.
func meetLink(e *calendar.Event) string {
	if e.ConferenceData != nil {
		for _, ep := range e.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri
			}
		}
	}
	return e.HangoutLink
}

