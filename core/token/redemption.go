package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go-booking-agent/core/cache"
	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
)

// RedemptionGuard makes tokens single-use. It remembers the hash of every
// redeemed token until the token would have expired anyway.
type RedemptionGuard struct {
	cache cache.Cache
	now   func() time.Time
}

func NewRedemptionGuard(c cache.Cache) *RedemptionGuard {
	return &RedemptionGuard{cache: c, now: time.Now}
}

// Redeem marks a verified token as used. A second call for the same token
// fails with ErrTokenRedeemed.
func (g *RedemptionGuard) Redeem(ctx context.Context, token string) error {
	exp, err := ExpiresAt(token)
	if err != nil {
		return err
	}
	ttl := exp.Sub(g.now()) + time.Second
	if ttl <= 0 {
		return invalid("token expired")
	}

	sum := sha256.Sum256([]byte(token))
	key := constants.CacheKeyRedeemedToken + hex.EncodeToString(sum[:])

	ok, err := g.cache.SetNX(ctx, key, g.now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		logger.Error("RedemptionGuard:Redeem:SetNX:Error", "error", err)
		return errors.NewAppError(errors.ErrInternalServer, "could not record token redemption", err)
	}
	if !ok {
		logger.Warn("RedemptionGuard:Redeem:Replay", "key", key)
		return errors.NewAppError(errors.ErrTokenRedeemed, "token has already been used", nil)
	}
	return nil
}
