package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/grading"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

// fakeJudge answers every request through respond. Requests are remembered by token so
// PollResults can be called with any ordering of tokens.
type fakeJudge struct {
	mu       sync.Mutex
	respond  func(index int, req judge.Request) judge.Result
	err      error
	pending  map[string]judge.Request
	index    map[string]int
	batches  int
	requests []judge.Request
}

func newFakeJudge() *fakeJudge {
	return &fakeJudge{respond: acceptAll, pending: map[string]judge.Request{}, index: map[string]int{}}
}

func (f *fakeJudge) SubmitBatch(_ context.Context, requests []judge.Request) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches++
	tokens := make([]string, len(requests))
	for i, req := range requests {
		token := fmt.Sprintf("batch-%d-%d", f.batches, i)
		f.pending[token] = req
		f.index[token] = i
		tokens[i] = token
	}
	f.requests = append(f.requests, requests...)
	return tokens, nil
}

func (f *fakeJudge) PollResults(_ context.Context, tokens []string) ([]judge.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]judge.Result, 0, len(tokens))
	for _, token := range tokens {
		result := f.respond(f.index[token], f.pending[token])
		result.Token = token
		results = append(results, result)
	}
	return results, nil
}

func (f *fakeJudge) setResponder(respond func(index int, req judge.Request) judge.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.respond = respond
}

func acceptAll(_ int, req judge.Request) judge.Result {
	return judge.Result{StatusID: judge.StatusAccepted, Stdout: req.ExpectedOutput, Time: 0.01, Memory: 1000}
}

func rejectAll(_ int, _ judge.Request) judge.Result {
	return judge.Result{StatusID: judge.StatusWrongAnswer, Stdout: "nope", Time: 0.01, Memory: 1000}
}

// passFirst accepts the first n cases of every batch and fails the rest.
func passFirst(n int) func(int, judge.Request) judge.Result {
	return func(index int, req judge.Request) judge.Result {
		if index < n {
			return acceptAll(index, req)
		}
		return rejectAll(index, req)
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) AddDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func setupServiceRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func createUser(t *testing.T, db *gorm.DB, email string, premium bool) models.User {
	t.Helper()

	user := models.User{Name: email, Email: email, IsPremium: premium, ContestRating: models.DefaultContestRating}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createProblem(t *testing.T, db *gorm.DB, slug, difficulty string, hidden int) models.Problem {
	t.Helper()

	cases := make(datatypes.JSONSlice[models.TestCase], 0, hidden)
	for i := 0; i < hidden; i++ {
		cases = append(cases, models.TestCase{Input: fmt.Sprint(i), Output: fmt.Sprint(i * 2)})
	}
	problem := models.Problem{
		Title:            slug,
		Slug:             slug,
		Difficulty:       difficulty,
		VisibleTestCases: datatypes.JSONSlice[models.TestCase]{{Input: "1", Output: "2"}},
		HiddenTestCases:  cases,
	}
	require.NoError(t, db.Create(&problem).Error)
	return problem
}

func hasSolved(t *testing.T, db *gorm.DB, userID, problemID uint) bool {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.UserSolvedProblem{}).Where("user_id = ? AND problem_id = ?", userID, problemID).Count(&count).Error)
	return count > 0
}

type gradingStack struct {
	db          *gorm.DB
	cache       *redis.Client
	redis       *miniredis.Miniredis
	judge       *fakeJudge
	clock       *testClock
	users       repository.UserRepository
	streaks     StreakService
	rewards     RewardService
	submissions SubmissionService
	contests    ContestService
	assessments AssessmentService
	dashboard   DashboardService
}

func newGradingStack(t *testing.T) *gradingStack {
	t.Helper()

	db := setupServiceDB(t)
	server, cache := setupServiceRedis(t)
	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	clock := &testClock{now: time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)}
	client := newFakeJudge()

	problems := repository.NewProblemRepository(db)
	users := repository.NewUserRepository(db)
	points := repository.NewPointRepository(db)
	activities := repository.NewActivityRepository(db)
	runner := grading.NewRunner(client, time.Second, logger)

	streaks := NewStreakService(repository.NewStreakRepository(db), logger)
	streaks.(*streakService).now = clock.Now

	rewards := NewRewardService(points, users, NopNotifier{}, logger)
	rewards.(*rewardService).now = clock.Now

	progress := NewProgressService(activities, streaks, rewards, cache, DefaultPointsConfig(), logger)

	submissions := NewSubmissionService(problems, repository.NewSubmissionRepository(db), users, runner, progress, streaks, nil, validate, logger)
	submissions.(*submissionService).now = clock.Now

	contests := NewContestService(repository.NewContestRepository(db), problems, users, runner, validate, logger)
	contests.(*contestService).now = clock.Now

	assessments := NewAssessmentService(repository.NewAssessmentRepository(db), problems, users, runner, rewards, cache, DefaultPointsConfig(), validate, logger)
	assessments.(*assessmentService).now = clock.Now

	dashboard := NewDashboardService(users, activities, points, streaks, cache, time.Minute, logger)
	dashboard.(*dashboardService).now = clock.Now

	return &gradingStack{
		db:          db,
		cache:       cache,
		redis:       server,
		judge:       client,
		clock:       clock,
		users:       users,
		streaks:     streaks,
		rewards:     rewards,
		submissions: submissions,
		contests:    contests,
		assessments: assessments,
		dashboard:   dashboard,
	}
}
