// Package calendartest provides an in-process stand-in for Google's OAuth
// token endpoint and the Calendar v3 freeBusy and events.insert calls.
package calendartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"go-booking-agent/core/config"

	"golang.org/x/oauth2"
)

// InsertCall records one events.insert request.
type InsertCall struct {
	CalendarID            string
	SendUpdates           string
	ConferenceDataVersion string
	Event                 map[string]any
}

type FakeGoogle struct {
	Server *httptest.Server

	mu           sync.Mutex
	busy         []map[string]string
	freeBusyErr  int
	insertErr    int
	refreshToken string
	TokenCalls   int
	FreeBusyReqs []map[string]any
	Inserts      []InsertCall
}

// NewFakeGoogle starts the fake and closes it when t ends.
func NewFakeGoogle(t testing.TB) *FakeGoogle {
	t.Helper()
	f := &FakeGoogle{refreshToken: "refresh-from-consent"}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", f.token)
	mux.HandleFunc("/calendar/v3/freeBusy", f.freeBusy)
	mux.HandleFunc("/calendar/v3/calendars/", f.insert)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// SetBusy makes freeBusy report the given start/end pairs.
func (f *FakeGoogle) SetBusy(pairs ...[2]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = nil
	for _, p := range pairs {
		f.busy = append(f.busy, map[string]string{"start": p[0], "end": p[1]})
	}
}

// FailFreeBusy and FailInsert make the next calls return status.
func (f *FakeGoogle) FailFreeBusy(status int) { f.mu.Lock(); f.freeBusyErr = status; f.mu.Unlock() }
func (f *FakeGoogle) FailInsert(status int)   { f.mu.Lock(); f.insertErr = status; f.mu.Unlock() }

// OmitRefreshToken makes the code exchange return no refresh token.
func (f *FakeGoogle) OmitRefreshToken() { f.mu.Lock(); f.refreshToken = ""; f.mu.Unlock() }

func (f *FakeGoogle) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   f.Server.URL + "/auth",
		TokenURL:  f.Server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// Config returns Google settings pointing at the fake.
func (f *FakeGoogle) Config() config.GoogleAPIConfig {
	return config.GoogleAPIConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8081/oauth/callback",
		RefreshToken: "configured-refresh",
		CalendarID:   "primary",
		APIBase:      f.Server.URL + "/calendar/v3",
	}
}

func (f *FakeGoogle) token(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.TokenCalls++
	rt := f.refreshToken
	f.mu.Unlock()

	body := map[string]any{"access_token": "access-" + r.Form.Get("grant_type"), "token_type": "Bearer", "expires_in": 3600}
	if r.Form.Get("grant_type") == "authorization_code" {
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		if rt != "" {
			body["refresh_token"] = rt
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *FakeGoogle) freeBusy(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		http.Error(w, "no auth", http.StatusUnauthorized)
		return
	}
	var req map[string]any
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.FreeBusyReqs = append(f.FreeBusyReqs, req)
	if f.freeBusyErr != 0 {
		writeJSON(w, f.freeBusyErr, map[string]any{"error": map[string]any{"code": f.freeBusyErr, "message": "backend error"}})
		return
	}
	busy := f.busy
	if busy == nil {
		busy = []map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":      "calendar#freeBusy",
		"timeMin":   req["timeMin"],
		"timeMax":   req["timeMax"],
		"calendars": map[string]any{"primary": map[string]any{"busy": busy}},
	})
}

func (f *FakeGoogle) insert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/events") {
		http.NotFound(w, r)
		return
	}
	calendarID, _ := url.PathUnescape(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/calendar/v3/calendars/"), "/events"))

	var event map[string]any
	_ = json.NewDecoder(r.Body).Decode(&event)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Inserts = append(f.Inserts, InsertCall{
		CalendarID:            calendarID,
		SendUpdates:           r.URL.Query().Get("sendUpdates"),
		ConferenceDataVersion: r.URL.Query().Get("conferenceDataVersion"),
		Event:                 event,
	})
	if f.insertErr != 0 {
		writeJSON(w, f.insertErr, map[string]any{"error": map[string]any{"code": f.insertErr, "message": "insert rejected"}})
		return
	}

	// The recorded request stays untouched; the reply is built separately.
	resp := make(map[string]any, len(event)+3)
	for k, v := range event {
		resp[k] = v
	}
	id := fmt.Sprintf("evt%d", len(f.Inserts))
	resp["id"] = id
	resp["htmlLink"] = "https://www.google.com/calendar/event?eid=" + id
	if _, ok := event["conferenceData"]; ok {
		resp["hangoutLink"] = "https://meet.google.com/hangout-" + id
		resp["conferenceData"] = map[string]any{
			"entryPoints": []map[string]any{
				{"entryPointType": "phone", "uri": "tel:+1-555-0100"},
				{"entryPointType": "video", "uri": "https://meet.google.com/abc-defg-hij"},
			},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
