package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// ProblemRepository reads practice problems and upserts seeded ones.
type ProblemRepository interface {
	GetByID(ctx context.Context, id uint) (models.Problem, error)
	GetBySlug(ctx context.Context, slug string) (models.Problem, error)
	UpsertBatch(ctx context.Context, problems []models.Problem) (int64, error)
}

type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository constructs a repository backed by GORM.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).First(&problem, id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) GetBySlug(ctx context.Context, slug string) (models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&problem).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) UpsertBatch(ctx context.Context, problems []models.Problem) (int64, error) {
	if len(problems) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "difficulty", "visible_test_cases", "hidden_test_cases",
			"starter_code", "reference_code", "updated_at",
		}),
	}).Create(&problems)
	return result.RowsAffected, result.Error
}
