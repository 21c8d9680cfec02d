package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/grading"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/observability"
	"github.com/noah-isme/gema-judge-api/internal/repository"
	"github.com/noah-isme/gema-judge-api/pkg/ai"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

// Grader runs code against test cases and aggregates the verdicts.
type Grader interface {
	Run(ctx context.Context, code, language string, cases []models.TestCase) (grading.Result, []grading.Verdict, error)
}

// SubmissionService grades practice submissions and exposes the submission ledger.
type SubmissionService interface {
	SubmitCode(ctx context.Context, userID, problemID uint, payload dto.SubmitCodeRequest) (dto.SubmitCodeResponse, error)
	RunCode(ctx context.Context, userID, problemID uint, payload dto.RunCodeRequest) (dto.RunCodeResponse, error)
	Get(ctx context.Context, userID, submissionID uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, userID uint, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, dto.PaginationMeta, error)
	Analyze(ctx context.Context, userID, submissionID uint) (dto.AnalysisResponse, error)
}

type submissionService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	grader      Grader
	progress    ProgressService
	streaks     StreakService
	analyzer    ai.Analyzer
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the practice submission service. analyzer may be nil.
func NewSubmissionService(problems repository.ProblemRepository, submissions repository.SubmissionRepository, users repository.UserRepository, grader Grader, progress ProgressService, streaks StreakService, analyzer ai.Analyzer, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		problems:    problems,
		submissions: submissions,
		users:       users,
		grader:      grader,
		progress:    progress,
		streaks:     streaks,
		analyzer:    analyzer,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// SubmitCode grades code against the problem's hidden test cases. The submission row is
// written as pending before the judge is called so that every attempt is recorded.
func (s *submissionService) SubmitCode(ctx context.Context, userID, problemID uint, payload dto.SubmitCodeRequest) (dto.SubmitCodeResponse, error) {
	if userID == 0 || problemID == 0 {
		return dto.SubmitCodeResponse{}, ErrMissingIdentifiers
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitCodeResponse{}, err
	}

	language, err := prepareSource(payload.Code, payload.Language)
	if err != nil {
		return dto.SubmitCodeResponse{}, err
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return dto.SubmitCodeResponse{}, err
	}
	if len(problem.HiddenTestCases) == 0 {
		return dto.SubmitCodeResponse{}, ErrNoTestCases
	}

	submission := models.Submission{
		UserID:         userID,
		ProblemID:      problem.ID,
		Code:           payload.Code,
		Language:       language,
		Status:         models.SubmissionStatusPending,
		TestCasesTotal: len(problem.HiddenTestCases),
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmitCodeResponse{}, err
	}

	logger := s.logger.With().Uint("submission_id", submission.ID).Uint("user_id", userID).Uint("problem_id", problem.ID).Logger()

	result, _, err := s.grader.Run(ctx, payload.Code, language, problem.HiddenTestCases)
	if err != nil {
		observability.GradingOutcomes().WithLabelValues("practice", "unavailable").Inc()
		logger.Error().Err(err).Msg("grading failed, submission left pending")
		return dto.SubmitCodeResponse{}, translateGradingError(err)
	}

	submission.Status = result.Status
	submission.TestCasesPassed = result.TestCasesPassed
	submission.TestCasesTotal = result.TestCasesTotal
	submission.Runtime = result.Runtime
	submission.Memory = result.Memory
	submission.ErrorMessage = result.ErrorMessage
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmitCodeResponse{}, err
	}
	observability.GradingOutcomes().WithLabelValues("practice", result.Status).Inc()

	// The solved set is extended regardless of the verdict.
	added, solvedCount, err := s.users.AddSolvedProblem(ctx, userID, problem.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to update solved problems")
	}

	progress := s.progress.Record(ctx, ProgressEvent{
		UserID:        userID,
		ProblemID:     problem.ID,
		Difficulty:    problem.Difficulty,
		Status:        submission.Status,
		At:            s.now(),
		SolvedSetGrew: added,
		SolvedCount:   solvedCount,
	})

	response := dto.SubmitCodeResponse{
		SubmissionID:    submission.ID,
		Accepted:        submission.IsAccepted(),
		Status:          submission.Status,
		TotalTestCases:  submission.TestCasesTotal,
		PassedTestCases: submission.TestCasesPassed,
		Runtime:         submission.Runtime,
		Memory:          submission.Memory,
		ErrorMessage:    submission.ErrorMessage,
		PointsAwarded:   progress.PointsAwarded,
		BadgesUnlocked:  progress.BadgesUnlocked,
	}

	if progress.Streak != nil {
		response.Streak = progress.Streak.Summary()
	} else if streak, err := s.streaks.Get(ctx, userID); err == nil {
		response.Streak = streak.Summary()
	} else {
		logger.Warn().Err(err).Msg("failed to read streak")
	}

	return response, nil
}

// RunCode grades code against the visible cases, or the caller's cases when given,
// without persisting anything.
func (s *submissionService) RunCode(ctx context.Context, userID, problemID uint, payload dto.RunCodeRequest) (dto.RunCodeResponse, error) {
	if userID == 0 || problemID == 0 {
		return dto.RunCodeResponse{}, ErrMissingIdentifiers
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.RunCodeResponse{}, err
	}

	language, err := prepareSource(payload.Code, payload.Language)
	if err != nil {
		return dto.RunCodeResponse{}, err
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return dto.RunCodeResponse{}, err
	}

	cases := []models.TestCase(problem.VisibleTestCases)
	if len(payload.TestCases) > 0 {
		cases = make([]models.TestCase, 0, len(payload.TestCases))
		for _, tc := range payload.TestCases {
			cases = append(cases, models.TestCase{Input: tc.Input, Output: tc.Output})
		}
	}
	if len(cases) == 0 {
		return dto.RunCodeResponse{}, ErrNoTestCases
	}

	result, verdicts, err := s.grader.Run(ctx, payload.Code, language, cases)
	if err != nil {
		observability.GradingOutcomes().WithLabelValues("run", "unavailable").Inc()
		return dto.RunCodeResponse{}, translateGradingError(err)
	}
	observability.GradingOutcomes().WithLabelValues("run", result.Status).Inc()

	details := make([]dto.RunCaseResult, 0, len(verdicts))
	for i, verdict := range verdicts {
		details = append(details, dto.RunCaseResult{
			Input:          cases[i].Input,
			ExpectedOutput: cases[i].Output,
			ActualOutput:   verdict.Stdout,
			Passed:         verdict.Passed(),
			Verdict:        verdict.Outcome.String(),
			Stderr:         verdict.Stderr,
			Runtime:        verdict.Time,
			Memory:         verdict.Memory,
		})
	}

	return dto.RunCodeResponse{
		Success:         result.Accepted(),
		Status:          result.Status,
		PassedTestCases: result.TestCasesPassed,
		TotalTestCases:  result.TestCasesTotal,
		TestCases:       details,
		Runtime:         result.Runtime,
		Memory:          result.Memory,
		ErrorMessage:    result.ErrorMessage,
	}, nil
}

func (s *submissionService) Get(ctx context.Context, userID, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadOwned(ctx, userID, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, userID uint, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, dto.PaginationMeta, error) {
	if userID == 0 {
		return nil, dto.PaginationMeta{}, ErrMissingIdentifiers
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.SubmissionFilter{UserID: userID, Page: page, PageSize: pageSize}
	if query.ProblemID != 0 {
		problemID := query.ProblemID
		filter.ProblemID = &problemID
	}
	if query.Status != "" {
		status := query.Status
		filter.Status = &status
	}

	submissions, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	return dto.NewSubmissionResponseSlice(submissions), dto.NewPaginationMeta(page, pageSize, total), nil
}

// Analyze asks the AI analyzer for a complexity review of a finished submission.
func (s *submissionService) Analyze(ctx context.Context, userID, submissionID uint) (dto.AnalysisResponse, error) {
	if s.analyzer == nil {
		return dto.AnalysisResponse{}, ErrAnalyzerUnavailable
	}

	submission, err := s.loadOwned(ctx, userID, submissionID)
	if err != nil {
		return dto.AnalysisResponse{}, err
	}
	if submission.IsPending() {
		return dto.AnalysisResponse{}, newCategoryError(ErrConflict, "submission has not been graded yet")
	}

	problem, err := s.loadProblem(ctx, submission.ProblemID)
	if err != nil {
		return dto.AnalysisResponse{}, err
	}

	analysis, err := s.analyzer.Analyze(ctx, ai.AnalysisInput{
		ProblemTitle: problem.Title,
		Description:  problem.Description,
		Language:     submission.Language,
		Source:       submission.Code,
		Status:       submission.Status,
		Runtime:      submission.Runtime,
		Memory:       submission.Memory,
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("complexity analysis failed")
		return dto.AnalysisResponse{}, &categoryError{message: err.Error(), category: ErrUnavailable}
	}

	return dto.AnalysisResponse{
		SubmissionID:    submission.ID,
		TimeComplexity:  analysis.TimeComplexity,
		SpaceComplexity: analysis.SpaceComplexity,
		Summary:         analysis.Summary,
		Suggestions:     analysis.Suggestions,
	}, nil
}

func (s *submissionService) loadOwned(ctx context.Context, userID, submissionID uint) (models.Submission, error) {
	if userID == 0 || submissionID == 0 {
		return models.Submission{}, ErrMissingIdentifiers
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	if submission.UserID != userID {
		return models.Submission{}, ErrSubmissionForbidden
	}
	return submission, nil
}

func (s *submissionService) loadProblem(ctx context.Context, problemID uint) (models.Problem, error) {
	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Problem{}, ErrProblemNotFound
		}
		return models.Problem{}, err
	}
	return problem, nil
}

// prepareSource rejects binary payloads and resolves the canonical language name.
func prepareSource(code, language string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", newCategoryError(ErrBadRequest, "code is required")
	}
	if !isTextPayload([]byte(code)) {
		return "", ErrBinarySource
	}

	canonical := judge.NormalizeLanguage(strings.TrimSpace(language))
	if _, ok := judge.LanguageID(canonical); !ok {
		return "", ErrUnsupportedLanguage
	}
	return canonical, nil
}

func isTextPayload(payload []byte) bool {
	for mtype := mimetype.Detect(payload); mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("text/plain") {
			return true
		}
	}
	return false
}
