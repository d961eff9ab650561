package service

import (
	"strings"

	"go-booking-agent/core/constants"
	"go-booking-agent/core/logger"
	"go-booking-agent/modules/agent/dto"
)

// ApplyPolicy makes a model decision follow the scheduling rules:
//   - proposal fields fill any args the model left out
//   - title, send_updates and conference get their defaults
//   - complete args (start, end, time_zone, attendees) never yield ASK_USER
//   - incomplete args always yield ASK_USER, with a question
func ApplyPolicy(d *dto.SchedulingDecision, p *dto.MeetingProposal) {
	if p != nil {
		if d.Args.Title == "" {
			d.Args.Title = p.Title
		}
		if d.Args.Start == "" {
			d.Args.Start = p.Start
		}
		if d.Args.End == "" {
			d.Args.End = p.End
		}
		if len(d.Args.Attendees) == 0 {
			d.Args.Attendees = append([]string(nil), p.Attendees...)
		}
		if d.Args.TimeZone == "" {
			d.Args.TimeZone = p.TimeZone
		}
	}
	if d.Args.Title == "" {
		d.Args.Title = constants.DefaultTitle
	}
	if d.Args.SendUpdates == "" {
		d.Args.SendUpdates = constants.DefaultSendUpdates
	}
	if d.Args.Conference == "" {
		d.Args.Conference = constants.DefaultConference
	}

	missing := d.Args.Missing()
	if len(missing) == 0 {
		if d.Action == dto.ActionAskUser {
			logger.Info("Scheduler:ApplyPolicy:UpgradeAskUser", "reason", d.Reason)
			d.Action = dto.ActionCheckAvailability
			d.Reason = "All required details are present; checking availability."
		}
		return
	}

	if d.Action != dto.ActionAskUser {
		logger.Info("Scheduler:ApplyPolicy:DowngradeToAskUser", "action", d.Action, "missing", missing)
		d.Action = dto.ActionAskUser
		d.Reason = ""
	}
	if d.Reason == "" {
		d.Reason = questionFor(missing)
	}
}

func questionFor(missing []string) string {
	labels := map[string]string{
		"start":     "when it should start",
		"end":       "how long it should last",
		"time_zone": "which time zone to use",
		"attendees": "who should attend (email addresses)",
	}
	parts := make([]string, 0, len(missing))
	for _, m := range missing {
		parts = append(parts, labels[m])
	}
	return "Could you tell me " + strings.Join(parts, " and ") + "?"
}
