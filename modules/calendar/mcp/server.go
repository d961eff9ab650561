// Package mcp serves the calendar tools over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/modules/calendar/dto"
	"go-booking-agent/modules/calendar/service"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	toolCheckAvailability = "calendar_check_availability"
	toolCreateEvent       = "calendar_create_event"
)

type Server struct {
	server *gomcp.Server
	tools  *service.ToolRegistry
}

func NewServer(tools *service.ToolRegistry, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{tools: tools}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "booking-calendar", Version: version}, nil)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        toolCheckAvailability,
		Description: "Check whether a time window on the calendar is free. Returns free and the merged busy intervals.",
	}, s.handleCheckAvailability)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        toolCreateEvent,
		Description: "Create a calendar event, optionally with a Google Meet conference, and invite the attendees.",
	}, s.handleCreateEvent)

	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server for tests and custom transports.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

func (s *Server) handleCheckAvailability(ctx context.Context, _ *gomcp.CallToolRequest, input dto.AvailabilityRequest) (*gomcp.CallToolResult, dto.AvailabilityResponse, error) {
	var out dto.AvailabilityResponse
	if res := s.call(ctx, constants.ToolCheckAvailability, input, &out); res != nil {
		return res, dto.AvailabilityResponse{Busy: []dto.TimeSlot{}}, nil
	}
	return nil, out, nil
}

func (s *Server) handleCreateEvent(ctx context.Context, _ *gomcp.CallToolRequest, input dto.CreateEventRequest) (*gomcp.CallToolResult, dto.CreateEventResponse, error) {
	var out dto.CreateEventResponse
	if res := s.call(ctx, constants.ToolCreateEvent, input, &out); res != nil {
		return res, dto.CreateEventResponse{AttendeesConfirmed: []string{}}, nil
	}
	return nil, out, nil
}

// call routes through the registry so MCP and HTTP share argument checks.
// A non-nil result is the error to hand back to the client.
func (s *Server) call(ctx context.Context, name string, input, out any) *gomcp.CallToolResult {
	args, err := toArgs(input)
	if err != nil {
		return errorResult(err.Error())
	}

	content, err := s.tools.Call(ctx, name, args)
	if err != nil {
		logger.Warn("MCPServer:Call:Error", "tool", name, "error", err)
		if ae, ok := errors.As(err); ok {
			return errorResult(fmt.Sprintf("%s: %s", ae.Code, ae.Message))
		}
		return errorResult(err.Error())
	}

	raw, err := json.Marshal(content)
	if err == nil {
		err = json.Unmarshal(raw, out)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("encoding %s result: %s", name, err))
	}
	return nil
}

func toArgs(input any) (map[string]any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
