package postgres

import (
	"gorm.io/gorm"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

type Repositories struct {
	Escrows     ports.EscrowRepository
	Milestones  ports.MilestoneRepository
	Automation  ports.AutomationEventRepository
	Users       ports.UserRepository
	Sessions    ports.SessionRepository
	Idempotency ports.IdempotencyRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Escrows:     &escrowRepository{db: db},
		Milestones:  &milestoneRepository{db: db},
		Automation:  &automationEventRepository{db: db},
		Users:       &userRepository{db: db},
		Sessions:    &sessionRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
