package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/observability"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

const (
	assessmentBadgeName        = "Assessment Explorer"
	assessmentBadgeDescription = "Completed two assessments"
	assessmentBadgeThreshold   = 2
)

// AssessmentService runs timed MCQ and coding assessments.
type AssessmentService interface {
	Start(ctx context.Context, userID, assessmentID uint) (dto.AssessmentSubmissionResponse, error)
	SubmitMCQAnswer(ctx context.Context, userID, assessmentID uint, payload dto.MCQAnswerRequest) (dto.AssessmentAnswerResponse, error)
	SubmitCodingAnswer(ctx context.Context, userID, assessmentID uint, payload dto.CodingAnswerRequest) (dto.AssessmentAnswerResponse, error)
	Complete(ctx context.Context, userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.CompleteAssessmentResponse, error)
	Abandon(ctx context.Context, userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.AssessmentSubmissionResponse, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	problems    repository.ProblemRepository
	users       repository.UserRepository
	grader      Grader
	rewards     RewardService
	cache       *redis.Client
	points      PointsConfig
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssessmentService constructs the assessment scoring engine.
func NewAssessmentService(
	assessments repository.AssessmentRepository,
	problems repository.ProblemRepository,
	users repository.UserRepository,
	grader Grader,
	rewards RewardService,
	cache *redis.Client,
	points PointsConfig,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		problems:    problems,
		users:       users,
		grader:      grader,
		rewards:     rewards,
		cache:       cache,
		points:      points,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
		now:         time.Now,
	}
}

// Start returns the user's in-progress attempt or opens a new one. Premium assessments
// require a premium account.
func (s *assessmentService) Start(ctx context.Context, userID, assessmentID uint) (dto.AssessmentSubmissionResponse, error) {
	if userID == 0 || assessmentID == 0 {
		return dto.AssessmentSubmissionResponse{}, ErrMissingIdentifiers
	}

	assessment, err := s.loadAssessment(ctx, assessmentID)
	if err != nil {
		return dto.AssessmentSubmissionResponse{}, err
	}

	if assessment.IsPremium {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AssessmentSubmissionResponse{}, ErrUserNotFound
			}
			return dto.AssessmentSubmissionResponse{}, err
		}
		if !user.IsPremium {
			return dto.AssessmentSubmissionResponse{}, ErrPremiumRequired
		}
	}

	existing, err := s.assessments.FindInProgress(ctx, userID, assessmentID)
	if err == nil {
		return dto.NewAssessmentSubmissionResponse(existing, len(assessment.Questions)), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AssessmentSubmissionResponse{}, err
	}

	submission := models.AssessmentSubmission{
		UserID:       userID,
		AssessmentID: assessmentID,
		Status:       models.AssessmentStatusInProgress,
		StartTime:    s.now().UTC(),
	}
	if err := s.assessments.CreateSubmission(ctx, &submission); err != nil {
		return dto.AssessmentSubmissionResponse{}, err
	}

	return dto.NewAssessmentSubmissionResponse(submission, len(assessment.Questions)), nil
}

func (s *assessmentService) SubmitMCQAnswer(ctx context.Context, userID, assessmentID uint, payload dto.MCQAnswerRequest) (dto.AssessmentAnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}

	assessment, submission, err := s.loadAttempt(ctx, userID, assessmentID, payload.SubmissionID)
	if err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}
	if assessment.Type != models.AssessmentTypeMCQ {
		return dto.AssessmentAnswerResponse{}, ErrQuestionTypeInvalid
	}

	question, err := questionAt(assessment, *payload.QuestionIndex)
	if err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}

	selected := *payload.SelectedOption
	if selected >= len(question.Options) {
		return dto.AssessmentAnswerResponse{}, ErrOptionOutOfRange
	}

	answer := models.AssessmentAnswer{
		QuestionIndex:  *payload.QuestionIndex,
		Type:           models.AnswerTypeMCQ,
		SelectedOption: &selected,
		IsCorrect:      selected == question.CorrectAnswer,
	}
	submission.UpsertAnswer(answer)
	if err := s.assessments.SaveSubmission(ctx, &submission); err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}

	return dto.AssessmentAnswerResponse{SubmissionID: submission.ID, Answer: answer}, nil
}

// SubmitCodingAnswer grades code against the hidden cases of the referenced problem
// and stores the per-question result.
func (s *assessmentService) SubmitCodingAnswer(ctx context.Context, userID, assessmentID uint, payload dto.CodingAnswerRequest) (dto.AssessmentAnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}

	assessment, submission, err := s.loadAttempt(ctx, userID, assessmentID, payload.SubmissionID)
	if err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}
	if assessment.Type != models.AssessmentTypeCoding {
		return dto.AssessmentAnswerResponse{}, ErrQuestionTypeInvalid
	}

	question, err := questionAt(assessment, *payload.QuestionIndex)
	if err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}
	if question.ProblemID == 0 {
		return dto.AssessmentAnswerResponse{}, ErrQuestionTypeInvalid
	}

	language, err := prepareSource(payload.Code, payload.Language)
	if err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}

	problem, err := s.problems.GetByID(ctx, question.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentAnswerResponse{}, ErrProblemNotFound
		}
		return dto.AssessmentAnswerResponse{}, err
	}
	if len(problem.HiddenTestCases) == 0 {
		return dto.AssessmentAnswerResponse{}, ErrNoTestCases
	}

	result, _, err := s.grader.Run(ctx, payload.Code, language, problem.HiddenTestCases)
	if err != nil {
		observability.GradingOutcomes().WithLabelValues("assessment", "unavailable").Inc()
		s.logger.Error().Err(err).Uint("assessment_id", assessmentID).Uint("user_id", userID).Msg("assessment grading failed")
		return dto.AssessmentAnswerResponse{}, translateGradingError(err)
	}
	observability.GradingOutcomes().WithLabelValues("assessment", result.Status).Inc()

	answer := models.AssessmentAnswer{
		QuestionIndex:   *payload.QuestionIndex,
		Type:            models.AnswerTypeCoding,
		IsCorrect:       result.Accepted(),
		Code:            payload.Code,
		Language:        language,
		TestCasesPassed: result.TestCasesPassed,
		TotalTestCases:  result.TestCasesTotal,
		Runtime:         result.Runtime,
		Memory:          result.Memory,
	}
	submission.UpsertAnswer(answer)
	if err := s.assessments.SaveSubmission(ctx, &submission); err != nil {
		return dto.AssessmentAnswerResponse{}, err
	}

	return dto.AssessmentAnswerResponse{
		SubmissionID: submission.ID,
		Answer:       answer,
		Status:       result.Status,
		ErrorMessage: result.ErrorMessage,
	}, nil
}

// Complete scores the attempt and pays the one-time completion rewards.
func (s *assessmentService) Complete(ctx context.Context, userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.CompleteAssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CompleteAssessmentResponse{}, err
	}

	assessment, submission, err := s.loadAttempt(ctx, userID, assessmentID, payload.SubmissionID)
	if err != nil {
		return dto.CompleteAssessmentResponse{}, err
	}

	score := ScoreAssessment(assessment.Type, submission.Answers)
	total := len(assessment.Questions)
	end := s.now().UTC()

	submission.Status = models.AssessmentStatusCompleted
	submission.EndTime = &end
	submission.Score = score
	submission.TotalScore = float64(total)
	submission.Percentage = 0
	if total > 0 {
		submission.Percentage = score / float64(total) * 100
	}
	if err := s.assessments.SaveSubmission(ctx, &submission); err != nil {
		return dto.CompleteAssessmentResponse{}, err
	}

	response := dto.CompleteAssessmentResponse{
		AssessmentSubmissionResponse: dto.NewAssessmentSubmissionResponse(submission, total),
	}

	points := s.points.AssessmentFree
	mission := "Assessment Completed"
	if assessment.IsPremium {
		points = s.points.AssessmentPremium
		mission = "Premium Assessment Completed"
	}
	if points > 0 {
		if _, err := s.rewards.AwardPoints(ctx, userID, mission, points); err != nil {
			s.logger.Error().Err(err).Uint("user_id", userID).Uint("assessment_id", assessmentID).Msg("failed to award assessment points")
		} else {
			response.PointsAwarded = points
		}
	}

	defer invalidateDashboard(ctx, s.cache, s.logger, userID)

	completed, err := s.assessments.CountCompleted(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to count completed assessments")
		return response, nil
	}
	if completed == assessmentBadgeThreshold {
		granted, err := s.rewards.GrantBadge(ctx, userID, assessmentBadgeName, assessmentBadgeDescription)
		if err != nil {
			s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to grant assessment badge")
		} else if granted {
			response.BadgeUnlocked = assessmentBadgeName
		}
	}

	return response, nil
}

func (s *assessmentService) Abandon(ctx context.Context, userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.AssessmentSubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentSubmissionResponse{}, err
	}

	assessment, submission, err := s.loadAttempt(ctx, userID, assessmentID, payload.SubmissionID)
	if err != nil {
		return dto.AssessmentSubmissionResponse{}, err
	}

	end := s.now().UTC()
	submission.Status = models.AssessmentStatusAbandoned
	submission.EndTime = &end
	if err := s.assessments.SaveSubmission(ctx, &submission); err != nil {
		return dto.AssessmentSubmissionResponse{}, err
	}

	return dto.NewAssessmentSubmissionResponse(submission, len(assessment.Questions)), nil
}

// ScoreAssessment counts correct answers for MCQ assessments and sums fractional
// test case credit for coding assessments.
func ScoreAssessment(assessmentType string, answers []models.AssessmentAnswer) float64 {
	score := 0.0
	for _, answer := range answers {
		switch assessmentType {
		case models.AssessmentTypeMCQ:
			if answer.IsCorrect {
				score++
			}
		case models.AssessmentTypeCoding:
			if answer.TotalTestCases > 0 {
				score += float64(answer.TestCasesPassed) / float64(answer.TotalTestCases)
			}
		}
	}
	return score
}

// loadAttempt resolves an in-progress attempt owned by the user on the given assessment.
func (s *assessmentService) loadAttempt(ctx context.Context, userID, assessmentID, submissionID uint) (models.Assessment, models.AssessmentSubmission, error) {
	if userID == 0 || assessmentID == 0 || submissionID == 0 {
		return models.Assessment{}, models.AssessmentSubmission{}, ErrMissingIdentifiers
	}

	assessment, err := s.loadAssessment(ctx, assessmentID)
	if err != nil {
		return models.Assessment{}, models.AssessmentSubmission{}, err
	}

	submission, err := s.assessments.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, models.AssessmentSubmission{}, ErrAttemptNotFound
		}
		return models.Assessment{}, models.AssessmentSubmission{}, err
	}
	if submission.AssessmentID != assessmentID {
		return models.Assessment{}, models.AssessmentSubmission{}, ErrAttemptNotFound
	}
	if submission.UserID != userID {
		return models.Assessment{}, models.AssessmentSubmission{}, ErrAttemptForbidden
	}
	if submission.Status != models.AssessmentStatusInProgress {
		return models.Assessment{}, models.AssessmentSubmission{}, ErrAttemptClosed
	}

	return assessment, submission, nil
}

func (s *assessmentService) loadAssessment(ctx context.Context, assessmentID uint) (models.Assessment, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	return assessment, nil
}

func questionAt(assessment models.Assessment, index int) (models.AssessmentQuestion, error) {
	if index < 0 || index >= len(assessment.Questions) {
		return models.AssessmentQuestion{}, ErrQuestionNotFound
	}
	return assessment.Questions[index], nil
}
