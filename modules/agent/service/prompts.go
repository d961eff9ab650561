package service

import (
	"fmt"
	"strings"
)

func plannerSystemPrompt(today, defaultTZ string) string {
	var b strings.Builder
	b.WriteString("You are Planner. Extract meeting details from a natural-language request and produce a clean, unambiguous plan.\n\n")
	fmt.Fprintf(&b, "Today's date is %s.\n\n", today)
	b.WriteString("Rules:\n")
	b.WriteString("- Return ONLY a JSON object with the fields title, start, end, attendees, time_zone.\n")
	b.WriteString("- Convert relative dates like 'tomorrow' into explicit ISO 8601 datetimes with offset, e.g. 2025-01-31T15:00:00-08:00.\n")
	b.WriteString("- If a duration is given instead of an end time, compute end from start.\n")
	b.WriteString("- Keep attendees as an array of email strings. Use an empty array when none are given; never invent addresses.\n")
	b.WriteString("- Leave start or end as an empty string when the request does not say when.\n")
	fmt.Fprintf(&b, "- If no time zone is given, use '%s'.\n", defaultTZ)
	return b.String()
}

const schedulerSystemPrompt = `You are Scheduler. Input is a JSON meeting plan with fields: title, start, end, attendees, time_zone.
Decide exactly one action:
- CHECK_AVAILABILITY: the default when start, end, time_zone and at least one attendee are present. Availability is verified before anything is booked.
- ASK_USER: a required field is missing or ambiguous. Put one short, specific question in reason.
- BOOK: only when the request explicitly says to book AND the time is already confirmed free.

Always return JSON matching {"action": ..., "args": {...}, "reason": ...}.
Copy title, start, end, attendees and time_zone from the input into args. Set args.send_updates to "all" unless the request says otherwise.
Do not wrap the JSON in code fences.`

const chatSystemPrompt = "Be concise. One short sentence. Do not repeat the user text."
