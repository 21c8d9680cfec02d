package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/observability"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

// ContestService scores contest submissions and computes post-contest ratings.
type ContestService interface {
	Register(ctx context.Context, userID, contestID uint) (dto.ContestRegistrationResponse, error)
	SubmitSolution(ctx context.Context, userID, contestID uint, payload dto.ContestSubmitRequest) (dto.ContestSubmitResponse, error)
	Leaderboard(ctx context.Context, contestID uint) (dto.LeaderboardResponse, error)
	Report(ctx context.Context, userID, contestID uint) (dto.ContestReportResponse, error)
}

type contestService struct {
	contests  repository.ContestRepository
	problems  repository.ProblemRepository
	users     repository.UserRepository
	grader    Grader
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewContestService constructs the contest scoring engine.
func NewContestService(contests repository.ContestRepository, problems repository.ProblemRepository, users repository.UserRepository, grader Grader, validate *validator.Validate, logger zerolog.Logger) ContestService {
	return &contestService{
		contests:  contests,
		problems:  problems,
		users:     users,
		grader:    grader,
		validator: validate,
		logger:    logger.With().Str("component", "contest_service").Logger(),
		now:       time.Now,
	}
}

func (s *contestService) Register(ctx context.Context, userID, contestID uint) (dto.ContestRegistrationResponse, error) {
	if userID == 0 || contestID == 0 {
		return dto.ContestRegistrationResponse{}, ErrMissingIdentifiers
	}

	contest, err := s.loadContest(ctx, contestID)
	if err != nil {
		return dto.ContestRegistrationResponse{}, err
	}
	if contest.HasEnded(s.now()) {
		return dto.ContestRegistrationResponse{}, ErrContestEnded
	}

	registration, err := s.contests.GetRegistration(ctx, contestID, userID)
	switch {
	case err == nil && registration.IsActive():
		return newRegistrationResponse(registration), nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.ContestRegistrationResponse{}, err
	}

	registration = models.ContestRegistration{
		ContestID:    contestID,
		UserID:       userID,
		Status:       models.RegistrationStatusActive,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.contests.SaveRegistration(ctx, &registration); err != nil {
		return dto.ContestRegistrationResponse{}, err
	}

	return newRegistrationResponse(registration), nil
}

// SubmitSolution grades a contest problem and stores the attempt, replacing any earlier
// attempt on the same problem. Contest submissions never feed the progress engine.
func (s *contestService) SubmitSolution(ctx context.Context, userID, contestID uint, payload dto.ContestSubmitRequest) (dto.ContestSubmitResponse, error) {
	if userID == 0 || contestID == 0 {
		return dto.ContestSubmitResponse{}, ErrMissingIdentifiers
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ContestSubmitResponse{}, err
	}

	contest, err := s.loadContest(ctx, contestID)
	if err != nil {
		return dto.ContestSubmitResponse{}, err
	}

	registration, err := s.contests.GetRegistration(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContestSubmitResponse{}, ErrNotRegistered
		}
		return dto.ContestSubmitResponse{}, err
	}
	if !registration.IsActive() {
		return dto.ContestSubmitResponse{}, ErrNotRegistered
	}

	if !contest.IsLive(s.now()) {
		return dto.ContestSubmitResponse{}, ErrContestNotLive
	}

	var entry *models.ContestProblem
	for i := range contest.Problems {
		if contest.Problems[i].ProblemID == payload.ProblemID {
			entry = &contest.Problems[i]
			break
		}
	}
	if entry == nil {
		return dto.ContestSubmitResponse{}, ErrContestProblemMissing
	}

	language, err := prepareSource(payload.Code, payload.Language)
	if err != nil {
		return dto.ContestSubmitResponse{}, err
	}

	problem, err := s.problems.GetByID(ctx, entry.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContestSubmitResponse{}, ErrProblemNotFound
		}
		return dto.ContestSubmitResponse{}, err
	}
	if len(problem.HiddenTestCases) == 0 {
		return dto.ContestSubmitResponse{}, ErrNoTestCases
	}

	result, _, err := s.grader.Run(ctx, payload.Code, language, problem.HiddenTestCases)
	if err != nil {
		observability.GradingOutcomes().WithLabelValues("contest", "unavailable").Inc()
		s.logger.Error().Err(err).Uint("contest_id", contestID).Uint("user_id", userID).Msg("contest grading failed")
		return dto.ContestSubmitResponse{}, translateGradingError(err)
	}
	observability.GradingOutcomes().WithLabelValues("contest", result.Status).Inc()

	marks := 0
	if result.Accepted() {
		marks = entry.Marks
	}

	submission := models.ContestSubmission{
		UserID:          userID,
		ContestID:       contestID,
		ProblemID:       problem.ID,
		Code:            payload.Code,
		Language:        language,
		Status:          result.Status,
		Runtime:         result.Runtime,
		Memory:          result.Memory,
		ErrorMessage:    result.ErrorMessage,
		TestCasesPassed: result.TestCasesPassed,
		TestCasesTotal:  result.TestCasesTotal,
		MarksAwarded:    marks,
		SubmittedAt:     s.now().UTC(),
	}
	if err := s.contests.UpsertSubmission(ctx, &submission); err != nil {
		return dto.ContestSubmitResponse{}, err
	}

	message := "Solution submitted"
	if result.Accepted() {
		message = "Solution accepted"
	}

	return dto.ContestSubmitResponse{
		Message:    message,
		Submission: dto.NewContestSubmissionResponse(submission),
	}, nil
}

func (s *contestService) Leaderboard(ctx context.Context, contestID uint) (dto.LeaderboardResponse, error) {
	contest, err := s.loadContest(ctx, contestID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	standings, err := s.contests.Standings(ctx, contestID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(standings))
	for i, standing := range standings {
		entries = append(entries, dto.LeaderboardEntry{Rank: i + 1, UserID: standing.UserID, Score: standing.Total})
	}

	return dto.LeaderboardResponse{
		ContestID: contest.ID,
		MaxScore:  contest.MaxScore(),
		Entries:   entries,
	}, nil
}

// Report summarises the user's contest. Once the contest has ended the rating change
// is computed on the first request and served from storage afterwards.
func (s *contestService) Report(ctx context.Context, userID, contestID uint) (dto.ContestReportResponse, error) {
	if userID == 0 || contestID == 0 {
		return dto.ContestReportResponse{}, ErrMissingIdentifiers
	}

	contest, err := s.loadContest(ctx, contestID)
	if err != nil {
		return dto.ContestReportResponse{}, err
	}

	registration, err := s.contests.GetRegistration(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContestReportResponse{}, ErrNotRegistered
		}
		return dto.ContestReportResponse{}, err
	}
	if !registration.IsActive() {
		return dto.ContestReportResponse{}, ErrNotRegistered
	}

	standings, err := s.contests.Standings(ctx, contestID)
	if err != nil {
		return dto.ContestReportResponse{}, err
	}

	submissions, err := s.contests.ListUserSubmissions(ctx, userID, contestID)
	if err != nil {
		return dto.ContestReportResponse{}, err
	}

	report := dto.ContestReportResponse{
		ContestID:        contest.ID,
		MaxScore:         contest.MaxScore(),
		ParticipantCount: len(standings),
		Ended:            contest.HasEnded(s.now()),
		Submissions:      make([]dto.ContestSubmissionResponse, 0, len(submissions)),
	}
	for _, submission := range submissions {
		report.Submissions = append(report.Submissions, dto.NewContestSubmissionResponse(submission))
	}
	for i, standing := range standings {
		if standing.UserID == userID {
			report.Rank = i + 1
			report.Score = standing.Total
			break
		}
	}

	if !report.Ended {
		return report, nil
	}

	rating, err := s.ensureRating(ctx, userID, contest.ID, report)
	if err != nil {
		return dto.ContestReportResponse{}, err
	}
	report.Rating = &dto.RatingResponse{OldRating: rating.OldRating, NewRating: rating.NewRating, Delta: rating.Delta}
	return report, nil
}

// ensureRating computes the rating once per (user, contest). Concurrent first requests
// may both compute, but only one row is stored and both return the stored row.
func (s *contestService) ensureRating(ctx context.Context, userID, contestID uint, report dto.ContestReportResponse) (models.ContestRating, error) {
	existing, err := s.contests.GetRating(ctx, userID, contestID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ContestRating{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ContestRating{}, ErrUserNotFound
		}
		return models.ContestRating{}, err
	}

	change := ComputeRating(user.ContestRating, report.Score, report.MaxScore, report.Rank, report.ParticipantCount)
	rating := models.ContestRating{
		UserID:           userID,
		ContestID:        contestID,
		OldRating:        change.OldRating,
		NewRating:        change.NewRating,
		Delta:            change.Delta,
		Rank:             report.Rank,
		ParticipantCount: report.ParticipantCount,
		Score:            report.Score,
		MaxScore:         report.MaxScore,
	}

	created, err := s.contests.CreateRating(ctx, &rating)
	if err != nil {
		return models.ContestRating{}, err
	}
	if !created {
		return s.contests.GetRating(ctx, userID, contestID)
	}

	s.logger.Info().
		Uint("user_id", userID).
		Uint("contest_id", contestID).
		Int("old_rating", change.OldRating).
		Int("new_rating", change.NewRating).
		Msg("contest rating computed")
	return rating, nil
}

func (s *contestService) loadContest(ctx context.Context, contestID uint) (models.Contest, error) {
	if contestID == 0 {
		return models.Contest{}, ErrMissingIdentifiers
	}
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Contest{}, ErrContestNotFound
		}
		return models.Contest{}, err
	}
	return contest, nil
}

func newRegistrationResponse(registration models.ContestRegistration) dto.ContestRegistrationResponse {
	return dto.ContestRegistrationResponse{
		ContestID:    registration.ContestID,
		Status:       registration.Status,
		RegisteredAt: registration.RegisteredAt,
	}
}
