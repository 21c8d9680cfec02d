package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// StreakRepository persists per-user streak documents.
type StreakRepository interface {
	GetByUser(ctx context.Context, userID uint) (models.UserStreak, error)
	Save(ctx context.Context, streak *models.UserStreak) error
}

type streakRepository struct {
	db *gorm.DB
}

// NewStreakRepository constructs a repository backed by GORM.
func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) GetByUser(ctx context.Context, userID uint) (models.UserStreak, error) {
	var streak models.UserStreak
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err != nil {
		return models.UserStreak{}, err
	}
	return streak, nil
}

func (r *streakRepository) Save(ctx context.Context, streak *models.UserStreak) error {
	return r.db.WithContext(ctx).Save(streak).Error
}

// ActivityRepository maintains the daily activity ledger.
type ActivityRepository interface {
	Record(ctx context.Context, userID uint, entry models.ActivityEntry) (models.DailyActivity, error)
	ListSince(ctx context.Context, userID uint, since time.Time) ([]models.DailyActivity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs a repository backed by GORM.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Record appends the entry to the document of the entry's UTC day. The insert and
// the increment are one statement so concurrent first-of-day submissions both count.
func (r *activityRepository) Record(ctx context.Context, userID uint, entry models.ActivityEntry) (models.DailyActivity, error) {
	day := models.DayKey(entry.At)
	row := models.DailyActivity{
		UserID:  userID,
		Day:     day,
		Date:    models.UTCDay(entry.At),
		Count:   1,
		Entries: []models.ActivityEntry{entry},
	}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("daily_activities.count + 1"),
			"entries":    gorm.Expr(appendEntryExpr(db.Dialector.Name())),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&row).Error
	if err != nil {
		return models.DailyActivity{}, err
	}

	var activity models.DailyActivity
	if err := db.Where("user_id = ? AND day = ?", userID, day).First(&activity).Error; err != nil {
		return models.DailyActivity{}, err
	}
	return activity, nil
}

// appendEntryExpr concatenates the incoming single-entry array onto the stored one.
func appendEntryExpr(dialect string) string {
	if dialect == "sqlite" {
		return "json_insert(COALESCE(daily_activities.entries, '[]'), '$[#]', json(json_extract(excluded.entries, '$[0]')))"
	}
	return "COALESCE(daily_activities.entries, '[]'::jsonb) || excluded.entries"
}

func (r *activityRepository) ListSince(ctx context.Context, userID uint, since time.Time) ([]models.DailyActivity, error) {
	var activities []models.DailyActivity
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day >= ?", userID, models.DayKey(since)).
		Order("day ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
