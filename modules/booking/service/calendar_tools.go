package service

import (
	"context"

	"go-booking-agent/core/constants"
	"go-booking-agent/core/toolcall"
	agentDto "go-booking-agent/modules/agent/dto"
	"go-booking-agent/modules/booking/dto"
)

// CalendarProvider is the calendar backend as the orchestrator sees it.
type CalendarProvider interface {
	CheckAvailability(ctx context.Context, args agentDto.BookingArgs) (*dto.Availability, error)
	CreateEvent(ctx context.Context, args agentDto.BookingArgs) (*dto.BookingResult, error)
}

// ToolCalendar reaches the calendar through the tool server.
type ToolCalendar struct {
	tools *toolcall.Client
}

func NewToolCalendar(tools *toolcall.Client) *ToolCalendar {
	return &ToolCalendar{tools: tools}
}

type availabilityArgs struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	TimeZone string `json:"time_zone"`
}

func (c *ToolCalendar) CheckAvailability(ctx context.Context, args agentDto.BookingArgs) (*dto.Availability, error) {
	var out dto.Availability
	err := c.tools.Call(ctx, constants.ToolCheckAvailability, availabilityArgs{
		Start:    args.Start,
		End:      args.End,
		TimeZone: args.TimeZone,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Busy == nil {
		out.Busy = []dto.Interval{}
	}
	return &out, nil
}

func (c *ToolCalendar) CreateEvent(ctx context.Context, args agentDto.BookingArgs) (*dto.BookingResult, error) {
	var out dto.BookingResult
	if err := c.tools.Call(ctx, constants.ToolCreateEvent, args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
