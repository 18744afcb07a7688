package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func hashRequest(v any) string {
	b, _ := json.Marshal(v)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}
	return email, nil
}

// beginIdempotent claims the idempotency key for this request. It returns the
// cached response body when an identical request already completed, reports a
// conflict when the key was reused with a different payload, and lets an
// identical retry of a request that never completed run again.
func (s *Service) beginIdempotent(ctx context.Context, key, requestHash string) ([]byte, bool, error) {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil, false, nil
	}
	rec, err := s.idempotency.Get(ctx, key, s.nowFn())
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		err := s.idempotency.Reserve(ctx, key, requestHash, s.nowFn().Add(s.cfg.IdempotencyTTL))
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race for the key; treat it like an existing reservation.
			return nil, false, domain.ErrIdempotencyConflict
		}
		return nil, false, err
	}
	if rec.RequestHash != requestHash {
		return nil, false, domain.ErrIdempotencyConflict
	}
	if len(rec.ResponseBody) == 0 {
		// Reserved but never completed, so the original attempt failed midway.
		return nil, false, nil
	}
	return rec.ResponseBody, true, nil
}

func (s *Service) completeIdempotencyJSON(ctx context.Context, key string, code int, payload any) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	b, _ := json.Marshal(payload)
	return s.idempotency.Complete(ctx, key, code, b, s.nowFn())
}

func requireIdempotency(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.ErrIdempotencyRequired
	}
	return nil
}
