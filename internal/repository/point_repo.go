package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// PointRepository appends to the point ledger and keeps users.points in step with it.
type PointRepository interface {
	Award(ctx context.Context, userID uint, mission string, points int) (models.PointActivity, int64, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.PointActivity, error)
}

type pointRepository struct {
	db *gorm.DB
}

// NewPointRepository constructs a repository backed by GORM.
func NewPointRepository(db *gorm.DB) PointRepository {
	return &pointRepository{db: db}
}

// Award writes the ledger row and increments the counter in one transaction and
// returns the new balance.
func (r *pointRepository) Award(ctx context.Context, userID uint, mission string, points int) (models.PointActivity, int64, error) {
	activity := models.PointActivity{UserID: userID, Mission: mission, Points: points}
	var balance int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}

		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("points", gorm.Expr("points + ?", points))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.User{}).Where("id = ?", userID).Pluck("points", &balance).Error
	})
	if err != nil {
		return models.PointActivity{}, 0, err
	}

	return activity, balance, nil
}

func (r *pointRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.PointActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var entries []models.PointActivity
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
