package constants

import "time"

const (
	DefaultTimeout    = 30 * time.Second
	ShutdownTimeout   = 10 * time.Second
	CompletionTimeout = 60 * time.Second

	ConfirmTokenTTL = 900 * time.Second
	OAuthStateTTL   = 10 * time.Minute

	DefaultTimeZone    = "America/Los_Angeles"
	DefaultSendUpdates = "all"
	DefaultConference  = "google_meet"
	DefaultTitle       = "Meeting"
)

const (
	HeaderToolKey   = "X-Tool-Key"
	HeaderRequestID = "X-Request-ID"
)

const (
	ToolCheckAvailability = "calendar.check_availability"
	ToolCreateEvent       = "calendar.create_event"
	// ToolFreeBusy is the older name of ToolCheckAvailability, still accepted.
	ToolFreeBusy = "calendar.freebusy"
)

const (
	CacheKeyRedeemedToken = "booking:token:redeemed:"
	CacheKeyGoogleRefresh = "calendar:google:refresh_token"
)
