package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, row domain.User) error {
	rec := toUserModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

func (r *userRepository) Update(ctx context.Context, row domain.User) error {
	rec := toUserModel(row)
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", row.UserID).
		Updates(map[string]any{
			"full_name":     rec.FullName,
			"password_hash": rec.PasswordHash,
			"role":          rec.Role,
			"is_active":     rec.IsActive,
			"updated_at":    rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) ListByRoles(ctx context.Context, roles []string, skip, limit int) ([]domain.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).
		Where("role IN ?", roles).
		Where("deleted_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Offset(skip).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainUser(row))
	}
	return result, nil
}

func (r *userRepository) SoftDelete(ctx context.Context, userID uuid.UUID, deletedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Updates(map[string]any{
			"is_active":  false,
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
