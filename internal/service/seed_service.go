package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads problems, contests and assessments into the store.
type SeedService interface {
	SeedProblems(ctx context.Context, token string, items []dto.SeedProblem) (dto.SeedResult, error)
	SeedContests(ctx context.Context, token string, items []dto.SeedContest) (dto.SeedResult, error)
	SeedAssessments(ctx context.Context, token string, items []dto.SeedAssessment) (dto.SeedResult, error)
}

type seedService struct {
	problems    repository.ProblemRepository
	contests    repository.ContestRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	enabled     bool
	token       string
	logger      zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(problems repository.ProblemRepository, contests repository.ContestRepository, assessments repository.AssessmentRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		problems:    problems,
		contests:    contests,
		assessments: assessments,
		validator:   validate,
		enabled:     enabled,
		token:       token,
		logger:      logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedProblems(ctx context.Context, token string, items []dto.SeedProblem) (dto.SeedResult, error) {
	if err := s.guard(token); err != nil {
		return dto.SeedResult{}, err
	}

	problems := make([]models.Problem, 0, len(items))
	for _, item := range items {
		if err := s.validator.Struct(item); err != nil {
			return dto.SeedResult{}, err
		}
		problems = append(problems, models.Problem{
			Title:            strings.TrimSpace(item.Title),
			Slug:             seedSlug(item.Slug, item.Title),
			Description:      item.Description,
			Difficulty:       item.Difficulty,
			VisibleTestCases: toTestCases(item.VisibleTestCases),
			HiddenTestCases:  toTestCases(item.HiddenTestCases),
			StarterCode:      toJSONMap(item.StarterCode),
			ReferenceCode:    toJSONMap(item.ReferenceCode),
		})
	}

	affected, err := s.problems.UpsertBatch(ctx, problems)
	if err != nil {
		return dto.SeedResult{}, err
	}
	s.logger.Info().Int64("affected", affected).Msg("problems seeded")
	return dto.SeedResult{Affected: affected}, nil
}

func (s *seedService) SeedContests(ctx context.Context, token string, items []dto.SeedContest) (dto.SeedResult, error) {
	if err := s.guard(token); err != nil {
		return dto.SeedResult{}, err
	}

	var affected int64
	for _, item := range items {
		if err := s.validator.Struct(item); err != nil {
			return dto.SeedResult{}, err
		}

		contest := models.Contest{
			Title:     strings.TrimSpace(item.Title),
			Slug:      seedSlug(item.Slug, item.Title),
			StartTime: item.StartTime.UTC(),
			EndTime:   item.EndTime.UTC(),
			Problems:  make([]models.ContestProblem, 0, len(item.Problems)),
		}
		for _, entry := range item.Problems {
			problemID, err := s.resolveProblem(ctx, entry.ProblemSlug)
			if err != nil {
				return dto.SeedResult{}, err
			}
			contest.Problems = append(contest.Problems, models.ContestProblem{ProblemID: problemID, Marks: entry.Marks})
		}

		if err := s.contests.UpsertBySlug(ctx, &contest); err != nil {
			return dto.SeedResult{}, err
		}
		affected++
	}

	s.logger.Info().Int64("affected", affected).Msg("contests seeded")
	return dto.SeedResult{Affected: affected}, nil
}

func (s *seedService) SeedAssessments(ctx context.Context, token string, items []dto.SeedAssessment) (dto.SeedResult, error) {
	if err := s.guard(token); err != nil {
		return dto.SeedResult{}, err
	}

	assessments := make([]models.Assessment, 0, len(items))
	for _, item := range items {
		if err := s.validator.Struct(item); err != nil {
			return dto.SeedResult{}, err
		}

		questions := make([]models.AssessmentQuestion, 0, len(item.Questions))
		for i, question := range item.Questions {
			converted := models.AssessmentQuestion{
				Prompt:        question.Prompt,
				Options:       question.Options,
				CorrectAnswer: question.CorrectAnswer,
			}
			switch item.Type {
			case models.AssessmentTypeCoding:
				problemID, err := s.resolveProblem(ctx, question.ProblemSlug)
				if err != nil {
					return dto.SeedResult{}, err
				}
				converted.ProblemID = problemID
			case models.AssessmentTypeMCQ:
				if question.CorrectAnswer >= len(question.Options) {
					return dto.SeedResult{}, fmt.Errorf("question %d: %w", i, ErrOptionOutOfRange)
				}
			}
			questions = append(questions, converted)
		}

		assessments = append(assessments, models.Assessment{
			Title:           strings.TrimSpace(item.Title),
			Slug:            seedSlug(item.Slug, item.Title),
			Type:            item.Type,
			IsPremium:       item.IsPremium,
			DurationMinutes: item.DurationMinutes,
			Questions:       questions,
		})
	}

	affected, err := s.assessments.UpsertBatch(ctx, assessments)
	if err != nil {
		return dto.SeedResult{}, err
	}
	s.logger.Info().Int64("affected", affected).Msg("assessments seeded")
	return dto.SeedResult{Affected: affected}, nil
}

func (s *seedService) guard(token string) error {
	if !s.enabled {
		return ErrSeedDisabled
	}
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return ErrSeedUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) != 1 {
		return ErrSeedUnauthorized
	}
	return nil
}

func (s *seedService) resolveProblem(ctx context.Context, problemSlug string) (uint, error) {
	problem, err := s.problems.GetBySlug(ctx, slug.Make(problemSlug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%s: %w", problemSlug, ErrProblemNotFound)
		}
		return 0, err
	}
	return problem.ID, nil
}

func seedSlug(explicit, title string) string {
	if value := strings.TrimSpace(explicit); value != "" {
		return slug.Make(value)
	}
	return slug.Make(title)
}

func toTestCases(items []dto.TestCaseInput) datatypes.JSONSlice[models.TestCase] {
	cases := make(datatypes.JSONSlice[models.TestCase], 0, len(items))
	for _, item := range items {
		cases = append(cases, models.TestCase{Input: item.Input, Output: item.Output})
	}
	return cases
}

func toJSONMap(values map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range values {
		out[key] = value
	}
	return out
}
