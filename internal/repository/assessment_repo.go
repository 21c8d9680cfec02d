package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// AssessmentRepository handles assessments and their submissions.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	UpsertBatch(ctx context.Context, assessments []models.Assessment) (int64, error)
	FindInProgress(ctx context.Context, userID, assessmentID uint) (models.AssessmentSubmission, error)
	GetSubmission(ctx context.Context, id uint) (models.AssessmentSubmission, error)
	CreateSubmission(ctx context.Context, submission *models.AssessmentSubmission) error
	SaveSubmission(ctx context.Context, submission *models.AssessmentSubmission) error
	CountCompleted(ctx context.Context, userID uint) (int64, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs a repository backed by GORM.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}

func (r *assessmentRepository) UpsertBatch(ctx context.Context, assessments []models.Assessment) (int64, error) {
	if len(assessments) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "type", "is_premium", "duration_minutes", "questions", "updated_at"}),
	}).Create(&assessments)
	return result.RowsAffected, result.Error
}

func (r *assessmentRepository) FindInProgress(ctx context.Context, userID, assessmentID uint) (models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ? AND status = ?", userID, assessmentID, models.AssessmentStatusInProgress).
		Order("start_time DESC").
		First(&submission).Error; err != nil {
		return models.AssessmentSubmission{}, err
	}
	return submission, nil
}

func (r *assessmentRepository) GetSubmission(ctx context.Context, id uint) (models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.AssessmentSubmission{}, err
	}
	return submission, nil
}

func (r *assessmentRepository) CreateSubmission(ctx context.Context, submission *models.AssessmentSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *assessmentRepository) SaveSubmission(ctx context.Context, submission *models.AssessmentSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *assessmentRepository) CountCompleted(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AssessmentSubmission{}).
		Where("user_id = ? AND status = ?", userID, models.AssessmentStatusCompleted).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
