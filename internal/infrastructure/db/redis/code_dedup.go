package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const dedupTTL = 24 * time.Hour

// CodeDedup remembers the last verification code recorded for each user.
// A save is a duplicate only when it repeats that code; recording a different
// code replaces the marker, so A, B, A writes A again.
//
// Key format: kyc:verified:<user_id>, value is the code.
type CodeDedup struct {
	client *redis.Client
}

var _ ports.CodeDedup = (*CodeDedup)(nil)

// NewCodeDedup creates a CodeDedup wrapping the given Redis client.
func NewCodeDedup(client *redis.Client) *CodeDedup {
	return &CodeDedup{client: client}
}

// IsDuplicate reports whether code is the last one recorded for the user.
func (d *CodeDedup) IsDuplicate(ctx context.Context, userID, code string) (bool, error) {
	last, err := d.client.Get(ctx, d.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return last == code, nil
}

// Mark stores code as the user's last recorded code for dedupTTL.
func (d *CodeDedup) Mark(ctx context.Context, userID, code string) error {
	if err := d.client.Set(ctx, d.key(userID), code, dedupTTL).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func (d *CodeDedup) key(userID string) string {
	return "kyc:verified:" + userID
}
