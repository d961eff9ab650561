package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"go-booking-agent/modules/calendar/calendartest"
	"go-booking-agent/modules/calendar/service"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *calendartest.FakeGoogle) {
	t.Helper()
	fake := calendartest.NewFakeGoogle(t)
	cfg := fake.Config()
	oauth := service.NewOAuthService(cfg, nil, service.WithOAuthEndpoint(fake.Endpoint()))
	registry, err := service.NewToolRegistry(service.NewCalendarService(cfg, oauth))
	require.NoError(t, err)
	return NewServer(registry, "test"), fake
}

func connect(t *testing.T, srv *Server) *gomcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	t1, t2 := gomcp.NewInMemoryTransports()
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func structured(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, result.IsError, "tool error: %+v", result.Content)
	require.NotNil(t, result.StructuredContent)
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestListTools(t *testing.T) {
	srv, _ := newTestServer(t)
	session := connect(t, srv)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := []string{}
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"calendar_check_availability", "calendar_create_event"}, names)
}

func TestCheckAvailability(t *testing.T) {
	srv, fake := newTestServer(t)
	fake.SetBusy([2]string{"2026-10-20T22:00:00Z", "2026-10-20T22:30:00Z"})
	session := connect(t, srv)

	result, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name: "calendar_check_availability",
		Arguments: map[string]any{
			"start":     "2026-10-20T15:00:00-07:00",
			"end":       "2026-10-20T15:30:00-07:00",
			"time_zone": "America/Los_Angeles",
		},
	})
	require.NoError(t, err)

	var out struct {
		Free bool                `json:"free"`
		Busy []map[string]string `json:"busy"`
	}
	structured(t, result, &out)
	assert.False(t, out.Free)
	assert.Equal(t, []map[string]string{{"start": "2026-10-20T22:00:00Z", "end": "2026-10-20T22:30:00Z"}}, out.Busy)
}

func TestCreateEvent(t *testing.T) {
	srv, fake := newTestServer(t)
	session := connect(t, srv)

	result, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name: "calendar_create_event",
		Arguments: map[string]any{
			"title":     "Sync",
			"start":     "2026-10-20T15:00:00-07:00",
			"end":       "2026-10-20T15:30:00-07:00",
			"time_zone": "America/Los_Angeles",
			"attendees": []string{"alice@example.com"},
		},
	})
	require.NoError(t, err)

	var out map[string]any
	structured(t, result, &out)
	assert.Equal(t, "evt1", out["event_id"])
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", out["conference_link"])
	require.Len(t, fake.Inserts, 1)
}

func TestCreateEventRejectedArguments(t *testing.T) {
	srv, fake := newTestServer(t)
	session := connect(t, srv)

	result, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name: "calendar_create_event",
		Arguments: map[string]any{
			"title":     "Sync",
			"start":     "tomorrow",
			"end":       "2026-10-20T15:30:00-07:00",
			"time_zone": "America/Los_Angeles",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, fake.Inserts)
}

