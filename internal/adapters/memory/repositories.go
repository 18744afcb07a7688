// Package memory provides map-backed implementations of the persistence ports.
// They serve unit tests and local development without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

type Repositories struct {
	Escrows     *EscrowRepository
	Milestones  *MilestoneRepository
	Automation  *AutomationEventRepository
	Users       *UserRepository
	Sessions    *SessionRepository
	Idempotency *IdempotencyRepository
	Outbox      *OutboxRepository
}

func NewRepositories() *Repositories {
	milestones := &MilestoneRepository{records: map[uuid.UUID]domain.SmartMilestone{}}
	outbox := &OutboxRepository{records: map[uuid.UUID]ports.OutboxRecord{}}
	return &Repositories{
		Escrows:     &EscrowRepository{records: map[uuid.UUID]domain.SmartEscrow{}, milestones: milestones, outbox: outbox},
		Milestones:  milestones,
		Automation:  &AutomationEventRepository{records: map[uuid.UUID][]domain.AutomationEvent{}},
		Users:       &UserRepository{records: map[uuid.UUID]domain.User{}, byEmail: map[string]uuid.UUID{}},
		Sessions:    &SessionRepository{records: map[uuid.UUID]domain.Session{}},
		Idempotency: &IdempotencyRepository{records: map[string]ports.IdempotencyRecord{}},
		Outbox:      outbox,
	}
}

type EscrowRepository struct {
	mu         sync.RWMutex
	records    map[uuid.UUID]domain.SmartEscrow
	order      []uuid.UUID
	milestones *MilestoneRepository
	outbox     *OutboxRepository
}

func (r *EscrowRepository) CreateWithMilestones(ctx context.Context, escrow domain.SmartEscrow, plan []domain.SmartMilestone, outboxEvent ports.OutboxEvent) error {
	r.mu.Lock()
	if _, ok := r.records[escrow.EscrowID]; ok {
		r.mu.Unlock()
		return domain.ErrConflict
	}
	r.records[escrow.EscrowID] = escrow
	r.order = append(r.order, escrow.EscrowID)
	r.mu.Unlock()
	for _, m := range plan {
		if err := r.milestones.Create(ctx, m); err != nil {
			return err
		}
	}
	return r.outbox.Enqueue(ctx, outboxEvent)
}

func (r *EscrowRepository) GetByID(_ context.Context, escrowID uuid.UUID) (domain.SmartEscrow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[escrowID]
	if !ok {
		return domain.SmartEscrow{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *EscrowRepository) Update(_ context.Context, escrow domain.SmartEscrow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[escrow.EscrowID]; !ok {
		return domain.ErrNotFound
	}
	r.records[escrow.EscrowID] = escrow
	return nil
}

func (r *EscrowRepository) List(_ context.Context, filter ports.EscrowFilter) ([]domain.SmartEscrow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]domain.SmartEscrow, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if filter.ClientID != nil && row.ClientID != *filter.ClientID {
			continue
		}
		if filter.FreelancerID != nil && row.FreelancerID != *filter.FreelancerID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		matched = append(matched, row)
	}
	if filter.Skip >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *EscrowRepository) ListAutomated(_ context.Context, limit int) ([]domain.SmartEscrow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SmartEscrow, 0)
	for _, id := range r.order {
		row := r.records[id]
		if row.Status != domain.EscrowStatusActive || !row.IsAutomated || !row.AutomationEnabled {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type MilestoneRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.SmartMilestone
}

func (r *MilestoneRepository) Create(_ context.Context, row domain.SmartMilestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.MilestoneID]; ok {
		return domain.ErrConflict
	}
	r.records[row.MilestoneID] = row
	return nil
}

func (r *MilestoneRepository) GetByID(_ context.Context, milestoneID uuid.UUID) (domain.SmartMilestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[milestoneID]
	if !ok {
		return domain.SmartMilestone{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *MilestoneRepository) Update(_ context.Context, row domain.SmartMilestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.MilestoneID]; !ok {
		return domain.ErrNotFound
	}
	r.records[row.MilestoneID] = row
	return nil
}

func (r *MilestoneRepository) ListByEscrow(_ context.Context, escrowID uuid.UUID) ([]domain.SmartMilestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SmartMilestone, 0)
	for _, row := range r.records {
		if row.EscrowID == escrowID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

type AutomationEventRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]domain.AutomationEvent
}

func (r *AutomationEventRepository) Append(_ context.Context, row domain.AutomationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[row.EscrowID] = append(r.records[row.EscrowID], row)
	return nil
}

func (r *AutomationEventRepository) ListByEscrow(_ context.Context, escrowID uuid.UUID, skip, limit int) ([]domain.AutomationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.records[escrowID]
	// Newest first, matching the SQL adapter's ordering.
	out := make([]domain.AutomationEvent, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type UserRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.User
	byEmail map[string]uuid.UUID
	order   []uuid.UUID
}

func (r *UserRepository) Create(_ context.Context, row domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(row.Email)
	if _, ok := r.byEmail[key]; ok {
		return domain.ErrConflict
	}
	r.records[row.UserID] = row
	r.byEmail[key] = row.UserID
	r.order = append(r.order, row.UserID)
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return r.records[id], nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *UserRepository) Update(_ context.Context, row domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.UserID]; !ok {
		return domain.ErrNotFound
	}
	r.records[row.UserID] = row
	return nil
}

func (r *UserRepository) ListByRoles(_ context.Context, roles []string, skip, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := map[string]bool{}
	for _, role := range roles {
		wanted[role] = true
	}
	matched := make([]domain.User, 0)
	for _, id := range r.order {
		row := r.records[id]
		if row.DeletedAt != nil || !wanted[row.Role] {
			continue
		}
		matched = append(matched, row)
	}
	if skip >= len(matched) {
		return nil, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *UserRepository) SoftDelete(_ context.Context, userID uuid.UUID, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[userID]
	if !ok || row.DeletedAt != nil {
		return domain.ErrNotFound
	}
	row.DeletedAt = &deletedAt
	row.IsActive = false
	row.UpdatedAt = deletedAt
	r.records[userID] = row
	return nil
}

type SessionRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Session
}

func (r *SessionRepository) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := domain.Session{
		SessionID:      uuid.New(),
		UserID:         params.UserID,
		Surface:        params.Surface,
		IPAddress:      params.IPAddress,
		UserAgent:      params.UserAgent,
		CreatedAt:      params.LastActivityAt,
		LastActivityAt: params.LastActivityAt,
		ExpiresAt:      params.ExpiresAt,
	}
	r.records[session.SessionID] = session
	return session, nil
}

func (r *SessionRepository) GetByID(_ context.Context, sessionID uuid.UUID) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *SessionRepository) Revoke(_ context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.RevokedAt == nil {
		row.RevokedAt = &revokedAt
		r.records[sessionID] = row
	}
	return nil
}

func (r *SessionRepository) TouchActivity(_ context.Context, sessionID uuid.UUID, touchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	row.LastActivityAt = touchedAt
	r.records[sessionID] = row
	return nil
}

type IdempotencyRepository struct {
	mu      sync.RWMutex
	records map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok || rec.ExpiresAt.Before(now) {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[key]; ok {
		return domain.ErrConflict
	}
	r.records[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ResponseCode = responseCode
	rec.ResponseBody = responseBody
	r.records[key] = rec
	return nil
}

type OutboxRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]ports.OutboxRecord
	order   []uuid.UUID
}

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[event.EventID]; ok {
		return domain.ErrConflict
	}
	r.records[event.EventID] = ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		CreatedAt:    event.OccurredAt,
	}
	r.order = append(r.order, event.EventID)
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.OutboxRecord, 0)
	for _, id := range r.order {
		rec := r.records[id]
		if rec.PublishedAt != nil {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.PublishedAt = &at
	r.records[outboxID] = rec
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, reason string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.RetryCount++
	rec.LastError = reason
	r.records[outboxID] = rec
	return nil
}
