package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/validator"
	"go-booking-agent/modules/calendar/dto"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// rfc3339Pattern is JSON-escaped for embedding in the schemas below.
const rfc3339Pattern = `^\\d{4}-\\d{2}-\\d{2}T\\d{2}:\\d{2}:\\d{2}(\\.\\d+)?(Z|[+-]\\d{2}:\\d{2})$`

const availabilitySchema = `{
  "type": "object",
  "properties": {
    "start": {"type": "string", "pattern": "` + rfc3339Pattern + `"},
    "end": {"type": "string", "pattern": "` + rfc3339Pattern + `"},
    "time_zone": {"type": "string", "minLength": 1}
  },
  "required": ["start", "end", "time_zone"]
}`

const createEventSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "start": {"type": "string", "pattern": "` + rfc3339Pattern + `"},
    "end": {"type": "string", "pattern": "` + rfc3339Pattern + `"},
    "attendees": {"type": "array", "items": {"type": "string"}},
    "time_zone": {"type": "string", "minLength": 1},
    "conference": {"enum": ["google_meet", "none"]},
    "send_updates": {"enum": ["all", "externalOnly", "none"]}
  },
  "required": ["title", "start", "end", "time_zone"]
}`

type toolHandler func(ctx context.Context, args map[string]any) (any, error)

type tool struct {
	name        string
	description string
	rawSchema   string
	schema      *jsonschema.Schema
	handler     toolHandler
}

// ToolRegistry exposes the calendar service as named tools with JSON Schema
// checked arguments.
type ToolRegistry struct {
	tools   map[string]*tool
	aliases map[string]string
}

func NewToolRegistry(calendar CalendarService) (*ToolRegistry, error) {
	r := &ToolRegistry{
		tools:   make(map[string]*tool),
		aliases: map[string]string{constants.ToolFreeBusy: constants.ToolCheckAvailability},
	}

	err := r.register(constants.ToolCheckAvailability, "Check if a time window is free", availabilitySchema,
		func(ctx context.Context, args map[string]any) (any, error) {
			var req dto.AvailabilityRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return calendar.CheckAvailability(ctx, &req)
		})
	if err != nil {
		return nil, err
	}

	err = r.register(constants.ToolCreateEvent, "Create a calendar event", createEventSchema,
		func(ctx context.Context, args map[string]any) (any, error) {
			var req dto.CreateEventRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return calendar.CreateEvent(ctx, &req)
		})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ToolRegistry) register(name, description, schema string, handler toolHandler) error {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://schemas.local/tools/%s.schema.json", name)
	if err := c.AddResource(schemaURL, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("tool %s schema load failed: %w", name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("tool %s schema compile failed: %w", name, err)
	}
	r.tools[name] = &tool{
		name:        name,
		description: description,
		rawSchema:   schema,
		schema:      compiled,
		handler:     handler,
	}
	return nil
}

// List describes every tool, aliases included, sorted by name.
func (r *ToolRegistry) List() []dto.ToolDescriptor {
	out := make([]dto.ToolDescriptor, 0, len(r.tools)+len(r.aliases))
	for _, t := range r.tools {
		out = append(out, dto.ToolDescriptor{Name: t.name, Description: t.description, InputSchema: json.RawMessage(t.rawSchema)})
	}
	for alias, target := range r.aliases {
		t := r.tools[target]
		out = append(out, dto.ToolDescriptor{Name: alias, Description: t.description + " (alias of " + target + ")", InputSchema: json.RawMessage(t.rawSchema)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call validates args against the tool's schema and runs it.
func (r *ToolRegistry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	t, ok := r.tools[name]
	if !ok {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("Unknown tool: %s", name), nil)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := t.schema.Validate(args); err != nil {
		logger.Warn("ToolRegistry:Call:SchemaRejected", "tool", name, "error", err)
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("invalid arguments for %s", name), err)
	}

	logger.Info("ToolRegistry:Call", "tool", name)
	return t.handler(ctx, args)
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err == nil {
		err = dec.Decode(args)
	}
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "invalid tool arguments", err)
	}
	if result := validator.Struct(out); result.HasError() {
		return errors.NewAppError(errors.ErrInvalidInput, "invalid tool arguments", result)
	}
	return nil
}
