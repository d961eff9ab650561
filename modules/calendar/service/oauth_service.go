package service

import (
	"context"
	stderrors "errors"
	"time"

	"go-booking-agent/core/cache"
	"go-booking-agent/core/config"
	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/utils"
	"go-booking-agent/modules/calendar/dto"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var calendarScopes = []string{
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/calendar.readonly",
}

const stateSubject = "calendar-oauth"

// OAuthService runs the one-time consent flow that yields a refresh token and
// hands out token sources built from it.
type OAuthService struct {
	cfg      config.GoogleAPIConfig
	store    cache.Cache
	endpoint oauth2.Endpoint
	now      func() time.Time
}

type OAuthOption func(*OAuthService)

// WithOAuthEndpoint replaces Google's authorization and token endpoints.
func WithOAuthEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(s *OAuthService) { s.endpoint = endpoint }
}

// NewOAuthService builds the service. store may be nil, in which case only
// GOOGLE_REFRESH_TOKEN is used.
func NewOAuthService(cfg config.GoogleAPIConfig, store cache.Cache, opts ...OAuthOption) *OAuthService {
	s := &OAuthService{
		cfg:      cfg,
		store:    store,
		endpoint: google.Endpoint,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OAuthService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  s.cfg.RedirectURI,
		Scopes:       calendarScopes,
		Endpoint:     s.endpoint,
	}
}

// AuthURL returns Google's consent URL with offline access and forced consent
// so that a refresh token is always issued.
func (s *OAuthService) AuthURL() (string, error) {
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" || s.cfg.RedirectURI == "" {
		return "", errors.NewAppError(errors.ErrConfiguration, "Google OAuth client is not configured", nil)
	}

	state, err := s.signState()
	if err != nil {
		logger.Error("OAuthService:AuthURL:SignState:Error", "error", err)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to create oauth state", err)
	}

	return s.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// Callback checks state, exchanges code and keeps the refresh token in the
// cache when one is configured.
func (s *OAuthService) Callback(ctx context.Context, code, state string) (*dto.OAuthCallbackResponse, error) {
	if code == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "code is required", nil)
	}
	if err := s.verifyState(state); err != nil {
		logger.Warn("OAuthService:Callback:State:Rejected", "error", err)
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid oauth state", err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	tok, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		logger.Error("OAuthService:Callback:Exchange:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "Token exchange failed", err)
	}
	if tok.RefreshToken == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "No refresh_token returned. Revoke old access and try again.", nil)
	}

	resp := &dto.OAuthCallbackResponse{
		Message:      "Copy refresh_token and set it as GOOGLE_REFRESH_TOKEN.",
		RefreshToken: tok.RefreshToken,
	}
	if s.store != nil {
		if err := s.store.Set(ctx, constants.CacheKeyGoogleRefresh, tok.RefreshToken, 0); err != nil {
			logger.Error("OAuthService:Callback:Store:Error", "error", err)
		} else {
			resp.Stored = true
			resp.Message = "Refresh token stored; the calendar tools will use it until GOOGLE_REFRESH_TOKEN is set."
		}
	}
	logger.Info("OAuthService:Callback:Success", "stored", resp.Stored)
	return resp, nil
}

// RefreshToken prefers GOOGLE_REFRESH_TOKEN and falls back to the token kept
// by a previous Callback.
func (s *OAuthService) RefreshToken(ctx context.Context) (string, error) {
	if s.cfg.RefreshToken != "" {
		return s.cfg.RefreshToken, nil
	}
	if s.store != nil {
		rt, err := s.store.Get(ctx, constants.CacheKeyGoogleRefresh)
		if err == nil && rt != "" {
			return rt, nil
		}
		if err != nil && !stderrors.Is(err, cache.ErrCacheMiss) {
			logger.Error("OAuthService:RefreshToken:Get:Error", "error", err)
		}
	}
	return "", errors.NewAppError(errors.ErrConfiguration, "no Google refresh token; visit /oauth/start", nil)
}

// TokenSource mints access tokens from the refresh token. The returned source
// caches each access token until it expires.
func (s *OAuthService) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	rt, err := s.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.oauthConfig().TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: rt}), nil
}

func (s *OAuthService) signState() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   stateSubject,
		ID:        utils.GenerateRandomString(16),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(constants.OAuthStateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.ClientSecret))
}

func (s *OAuthService) verifyState(state string) error {
	if state == "" {
		return stderrors.New("missing state")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.ClientSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(stateSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return err
}
