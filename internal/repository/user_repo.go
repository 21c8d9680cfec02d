package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// UserRepository manages the user counters touched by grading: the problem-solved set
// and the badge set. Point balances go through PointRepository and the contest rating
// is written alongside its ContestRating row by ContestRepository.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	AddSolvedProblem(ctx context.Context, userID, problemID uint) (bool, int64, error)
	CountSolvedByDifficulty(ctx context.Context, userID uint) (map[string]int64, error)
	HasBadge(ctx context.Context, userID uint, name string) (bool, error)
	CreateBadge(ctx context.Context, badge *models.UserBadge) (bool, error)
	ListBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// AddSolvedProblem inserts into the solved set unless already present and reports
// whether the set grew together with its new size.
func (r *userRepository) AddSolvedProblem(ctx context.Context, userID, problemID uint) (bool, int64, error) {
	entry := models.UserSolvedProblem{UserID: userID, ProblemID: problemID}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry)
	if result.Error != nil {
		return false, 0, result.Error
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.UserSolvedProblem{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return false, 0, err
	}

	return result.RowsAffected > 0, total, nil
}

func (r *userRepository) CountSolvedByDifficulty(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []struct {
		Difficulty string
		Total      int64
	}

	if err := r.db.WithContext(ctx).
		Table("user_solved_problems").
		Select("problems.difficulty AS difficulty, COUNT(*) AS total").
		Joins("JOIN problems ON problems.id = user_solved_problems.problem_id").
		Where("user_solved_problems.user_id = ?", userID).
		Group("problems.difficulty").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.DifficultyEasy:   0,
		models.DifficultyMedium: 0,
		models.DifficultyHard:   0,
	}
	for _, row := range rows {
		counts[row.Difficulty] = row.Total
	}
	return counts, nil
}

func (r *userRepository) HasBadge(ctx context.Context, userID uint, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateBadge inserts the badge unless the user already holds one with the same name.
func (r *userRepository) CreateBadge(ctx context.Context, badge *models.UserBadge) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(badge)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *userRepository) ListBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at ASC, id ASC").Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}
