package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/internal/config"
	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/router"
	"github.com/noah-isme/gema-judge-api/internal/service"
)

type stubSubmissionService struct {
	submit  func(userID, problemID uint, payload dto.SubmitCodeRequest) (dto.SubmitCodeResponse, error)
	run     func(userID, problemID uint, payload dto.RunCodeRequest) (dto.RunCodeResponse, error)
	get     func(userID, submissionID uint) (dto.SubmissionResponse, error)
	list    func(userID uint, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, dto.PaginationMeta, error)
	analyze func(userID, submissionID uint) (dto.AnalysisResponse, error)
}

func (s *stubSubmissionService) SubmitCode(_ context.Context, userID, problemID uint, payload dto.SubmitCodeRequest) (dto.SubmitCodeResponse, error) {
	return s.submit(userID, problemID, payload)
}

func (s *stubSubmissionService) RunCode(_ context.Context, userID, problemID uint, payload dto.RunCodeRequest) (dto.RunCodeResponse, error) {
	return s.run(userID, problemID, payload)
}

func (s *stubSubmissionService) Get(_ context.Context, userID, submissionID uint) (dto.SubmissionResponse, error) {
	return s.get(userID, submissionID)
}

func (s *stubSubmissionService) List(_ context.Context, userID uint, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, dto.PaginationMeta, error) {
	return s.list(userID, query)
}

func (s *stubSubmissionService) Analyze(_ context.Context, userID, submissionID uint) (dto.AnalysisResponse, error) {
	return s.analyze(userID, submissionID)
}

type stubContestService struct {
	register    func(userID, contestID uint) (dto.ContestRegistrationResponse, error)
	submit      func(userID, contestID uint, payload dto.ContestSubmitRequest) (dto.ContestSubmitResponse, error)
	leaderboard func(contestID uint) (dto.LeaderboardResponse, error)
	report      func(userID, contestID uint) (dto.ContestReportResponse, error)
}

func (s *stubContestService) Register(_ context.Context, userID, contestID uint) (dto.ContestRegistrationResponse, error) {
	return s.register(userID, contestID)
}

func (s *stubContestService) SubmitSolution(_ context.Context, userID, contestID uint, payload dto.ContestSubmitRequest) (dto.ContestSubmitResponse, error) {
	return s.submit(userID, contestID, payload)
}

func (s *stubContestService) Leaderboard(_ context.Context, contestID uint) (dto.LeaderboardResponse, error) {
	return s.leaderboard(contestID)
}

func (s *stubContestService) Report(_ context.Context, userID, contestID uint) (dto.ContestReportResponse, error) {
	return s.report(userID, contestID)
}

type stubAssessmentService struct {
	start    func(userID, assessmentID uint) (dto.AssessmentSubmissionResponse, error)
	mcq      func(userID, assessmentID uint, payload dto.MCQAnswerRequest) (dto.AssessmentAnswerResponse, error)
	coding   func(userID, assessmentID uint, payload dto.CodingAnswerRequest) (dto.AssessmentAnswerResponse, error)
	complete func(userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.CompleteAssessmentResponse, error)
	abandon  func(userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.AssessmentSubmissionResponse, error)
}

func (s *stubAssessmentService) Start(_ context.Context, userID, assessmentID uint) (dto.AssessmentSubmissionResponse, error) {
	return s.start(userID, assessmentID)
}

func (s *stubAssessmentService) SubmitMCQAnswer(_ context.Context, userID, assessmentID uint, payload dto.MCQAnswerRequest) (dto.AssessmentAnswerResponse, error) {
	return s.mcq(userID, assessmentID, payload)
}

func (s *stubAssessmentService) SubmitCodingAnswer(_ context.Context, userID, assessmentID uint, payload dto.CodingAnswerRequest) (dto.AssessmentAnswerResponse, error) {
	return s.coding(userID, assessmentID, payload)
}

func (s *stubAssessmentService) Complete(_ context.Context, userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.CompleteAssessmentResponse, error) {
	return s.complete(userID, assessmentID, payload)
}

func (s *stubAssessmentService) Abandon(_ context.Context, userID, assessmentID uint, payload dto.AssessmentSubmissionRequest) (dto.AssessmentSubmissionResponse, error) {
	return s.abandon(userID, assessmentID, payload)
}

type stubStreakService struct {
	state service.StreakState
}

func (s stubStreakService) Update(context.Context, uint, time.Time) (service.StreakState, error) {
	return s.state, nil
}

func (s stubStreakService) Get(context.Context, uint) (service.StreakState, error) {
	return s.state, nil
}

type stubDashboardService struct {
	response dto.DashboardResponse
	err      error
}

func (s stubDashboardService) Get(_ context.Context, userID uint) (dto.DashboardResponse, error) {
	if s.err != nil {
		return dto.DashboardResponse{}, s.err
	}
	response := s.response
	response.UserID = userID
	return response, nil
}

type stubSeedService struct {
	problems func(token string, items []dto.SeedProblem) (dto.SeedResult, error)
}

func (s *stubSeedService) SeedProblems(_ context.Context, token string, items []dto.SeedProblem) (dto.SeedResult, error) {
	return s.problems(token, items)
}

func (s *stubSeedService) SeedContests(_ context.Context, _ string, items []dto.SeedContest) (dto.SeedResult, error) {
	return dto.SeedResult{Affected: int64(len(items))}, nil
}

func (s *stubSeedService) SeedAssessments(_ context.Context, _ string, items []dto.SeedAssessment) (dto.SeedResult, error) {
	return dto.SeedResult{Affected: int64(len(items))}, nil
}

// newTestApp mounts the handlers behind a fake auth middleware that reads the caller from
// the X-Test-User and X-Test-Role headers.
func newTestApp(t *testing.T, deps router.Dependencies) *fiber.App {
	t.Helper()

	logger := zerolog.Nop()
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})

	deps.JWTMiddleware = func(c *fiber.Ctx) error {
		raw := c.Get("X-Test-User")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		require.NoError(t, err)
		c.Locals(middleware.LocalUserID, uint(id))
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals(middleware.LocalUserRole, role)
		}
		return c.Next()
	}
	if deps.GradingLimiter == nil {
		deps.GradingLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Register(app, config.Config{AppName: "GEMA Judge Test", AppEnv: "test", JWTSecret: "secret"}, deps)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, userID uint, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func requireSchema(t *testing.T, resp *http.Response, schemaFile string) map[string]interface{} {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("testdata", schemaFile))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload), string(body))
	return payload
}
