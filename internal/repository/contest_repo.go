package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// Standing is the aggregated score of one active registrant.
type Standing struct {
	UserID uint
	Total  int
}

// ContestRepository defines persistence for contests, registrations, scored submissions
// and rating rows.
type ContestRepository interface {
	GetByID(ctx context.Context, id uint) (models.Contest, error)
	UpsertBySlug(ctx context.Context, contest *models.Contest) error
	GetRegistration(ctx context.Context, contestID, userID uint) (models.ContestRegistration, error)
	SaveRegistration(ctx context.Context, registration *models.ContestRegistration) error
	UpsertSubmission(ctx context.Context, submission *models.ContestSubmission) error
	GetSubmission(ctx context.Context, userID, contestID, problemID uint) (models.ContestSubmission, error)
	ListUserSubmissions(ctx context.Context, userID, contestID uint) ([]models.ContestSubmission, error)
	Standings(ctx context.Context, contestID uint) ([]Standing, error)
	GetRating(ctx context.Context, userID, contestID uint) (models.ContestRating, error)
	CreateRating(ctx context.Context, rating *models.ContestRating) (bool, error)
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository constructs a repository backed by GORM.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	var contest models.Contest
	if err := r.db.WithContext(ctx).Preload("Problems").First(&contest, id).Error; err != nil {
		return models.Contest{}, err
	}
	return contest, nil
}

// UpsertBySlug stores the contest keyed by slug and replaces its problem list.
func (r *contestRepository) UpsertBySlug(ctx context.Context, contest *models.Contest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		problems := contest.Problems

		var existing models.Contest
		err := tx.Where("slug = ?", contest.Slug).First(&existing).Error
		switch {
		case err == nil:
			contest.ID = existing.ID
			contest.CreatedAt = existing.CreatedAt
			if err := tx.Omit(clause.Associations).Save(contest).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit(clause.Associations).Create(contest).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Where("contest_id = ?", contest.ID).Delete(&models.ContestProblem{}).Error; err != nil {
			return err
		}

		for i := range problems {
			problems[i].ID = 0
			problems[i].ContestID = contest.ID
		}
		if len(problems) > 0 {
			if err := tx.Omit(clause.Associations).Create(&problems).Error; err != nil {
				return err
			}
		}
		contest.Problems = problems
		return nil
	})
}

func (r *contestRepository) GetRegistration(ctx context.Context, contestID, userID uint) (models.ContestRegistration, error) {
	var registration models.ContestRegistration
	if err := r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&registration).Error; err != nil {
		return models.ContestRegistration{}, err
	}
	return registration, nil
}

func (r *contestRepository) SaveRegistration(ctx context.Context, registration *models.ContestRegistration) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contest_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "registered_at"}),
	}).Create(registration).Error
}

// UpsertSubmission stores the attempt, replacing any earlier attempt on the same
// (user, contest, problem).
func (r *contestRepository) UpsertSubmission(ctx context.Context, submission *models.ContestSubmission) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "contest_id"}, {Name: "problem_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"code", "language", "status", "runtime", "memory", "error_message",
			"test_cases_passed", "test_cases_total", "marks_awarded", "submitted_at",
		}),
	}).Create(submission).Error
	if err != nil {
		return err
	}

	stored, err := r.GetSubmission(ctx, submission.UserID, submission.ContestID, submission.ProblemID)
	if err != nil {
		return err
	}
	*submission = stored
	return nil
}

func (r *contestRepository) GetSubmission(ctx context.Context, userID, contestID, problemID uint) (models.ContestSubmission, error) {
	var submission models.ContestSubmission
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND contest_id = ? AND problem_id = ?", userID, contestID, problemID).
		First(&submission).Error; err != nil {
		return models.ContestSubmission{}, err
	}
	return submission, nil
}

func (r *contestRepository) ListUserSubmissions(ctx context.Context, userID, contestID uint) ([]models.ContestSubmission, error) {
	var submissions []models.ContestSubmission
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND contest_id = ?", userID, contestID).
		Order("problem_id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// Standings sums awarded marks per active registrant, best first. Ties are ordered by
// user id so ranks are deterministic.
func (r *contestRepository) Standings(ctx context.Context, contestID uint) ([]Standing, error) {
	var standings []Standing
	if err := r.db.WithContext(ctx).
		Table("contest_registrations AS r").
		Select("r.user_id AS user_id, COALESCE(SUM(s.marks_awarded), 0) AS total").
		Joins("LEFT JOIN contest_submissions AS s ON s.contest_id = r.contest_id AND s.user_id = r.user_id").
		Where("r.contest_id = ? AND r.status = ?", contestID, models.RegistrationStatusActive).
		Group("r.user_id").
		Order("total DESC, r.user_id ASC").
		Scan(&standings).Error; err != nil {
		return nil, err
	}
	return standings, nil
}

func (r *contestRepository) GetRating(ctx context.Context, userID, contestID uint) (models.ContestRating, error) {
	var rating models.ContestRating
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND contest_id = ?", userID, contestID).
		First(&rating).Error; err != nil {
		return models.ContestRating{}, err
	}
	return rating, nil
}

// CreateRating inserts the rating row and moves users.contest_rating to the new value.
// It reports false without touching the user when a row already exists.
func (r *contestRepository) CreateRating(ctx context.Context, rating *models.ContestRating) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rating)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		return tx.Model(&models.User{}).
			Where("id = ?", rating.UserID).
			UpdateColumn("contest_rating", rating.NewRating).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
