package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

func createContest(t *testing.T, db *gorm.DB, start, end time.Time, problems map[uint]int) models.Contest {
	t.Helper()

	contest := models.Contest{Title: "Weekly", Slug: "weekly-" + start.Format("20060102150405"), StartTime: start, EndTime: end}
	for problemID, marks := range problems {
		contest.Problems = append(contest.Problems, models.ContestProblem{ProblemID: problemID, Marks: marks})
	}
	require.NoError(t, repository.NewContestRepository(db).UpsertBySlug(context.Background(), &contest))
	return contest
}

func TestContestSubmitRequiresRegistrationAndWindow(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "contest@example.com", false)
	problem := createProblem(t, stack.db, "contest-a", models.DifficultyEasy, 2)
	now := stack.clock.Now()
	contest := createContest(t, stack.db, now.Add(time.Hour), now.Add(3*time.Hour), map[uint]int{problem.ID: 100})
	ctx := context.Background()
	payload := dto.ContestSubmitRequest{ProblemID: problem.ID, Code: "print(1)", Language: "python"}

	_, err := stack.contests.SubmitSolution(ctx, user.ID, contest.ID, payload)
	require.ErrorIs(t, err, ErrNotRegistered)

	_, err = stack.contests.Register(ctx, user.ID, contest.ID)
	require.NoError(t, err)

	_, err = stack.contests.SubmitSolution(ctx, user.ID, contest.ID, payload)
	require.ErrorIs(t, err, ErrContestNotLive)

	stack.clock.Set(contest.EndTime)
	response, err := stack.contests.SubmitSolution(ctx, user.ID, contest.ID, payload)
	require.NoError(t, err)
	require.Equal(t, 100, response.Submission.MarksAwarded)

	stack.clock.Set(contest.EndTime.Add(time.Second))
	stack.judge.setResponder(rejectAll)
	_, err = stack.contests.SubmitSolution(ctx, user.ID, contest.ID, payload)
	require.ErrorIs(t, err, ErrContestNotLive)
	require.ErrorIs(t, err, ErrForbidden)

	var stored models.ContestSubmission
	require.NoError(t, stack.db.Where("user_id = ? AND contest_id = ?", user.ID, contest.ID).First(&stored).Error)
	require.Equal(t, models.SubmissionStatusAccepted, stored.Status)
	require.Equal(t, 100, stored.MarksAwarded)

	_, err = stack.contests.SubmitSolution(ctx, user.ID, 4242, payload)
	require.ErrorIs(t, err, ErrContestNotFound)
}

func TestContestSubmitWithoutHiddenCasesIsRejected(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "empty@example.com", false)
	problem := createProblem(t, stack.db, "contest-empty", models.DifficultyEasy, 0)
	now := stack.clock.Now()
	contest := createContest(t, stack.db, now.Add(-time.Hour), now.Add(time.Hour), map[uint]int{problem.ID: 100})
	ctx := context.Background()
	stack.judge.setResponder(rejectAll)

	_, err := stack.contests.Register(ctx, user.ID, contest.ID)
	require.NoError(t, err)

	_, err = stack.contests.SubmitSolution(ctx, user.ID, contest.ID, dto.ContestSubmitRequest{ProblemID: problem.ID, Code: "print(1)", Language: "python"})
	require.ErrorIs(t, err, ErrNoTestCases)
	require.Zero(t, stack.judge.batches)

	var rows int64
	require.NoError(t, stack.db.Model(&models.ContestSubmission{}).Where("contest_id = ?", contest.ID).Count(&rows).Error)
	require.Zero(t, rows)
}

func TestContestResubmissionOverwritesMarks(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "resubmit@example.com", false)
	problem := createProblem(t, stack.db, "contest-b", models.DifficultyMedium, 2)
	stray := createProblem(t, stack.db, "not-in-contest", models.DifficultyEasy, 1)
	now := stack.clock.Now()
	contest := createContest(t, stack.db, now.Add(-time.Hour), now.Add(time.Hour), map[uint]int{problem.ID: 50})
	ctx := context.Background()

	_, err := stack.contests.Register(ctx, user.ID, contest.ID)
	require.NoError(t, err)

	first, err := stack.contests.SubmitSolution(ctx, user.ID, contest.ID, dto.ContestSubmitRequest{ProblemID: problem.ID, Code: "print(1)", Language: "python"})
	require.NoError(t, err)
	require.Equal(t, 50, first.Submission.MarksAwarded)
	require.Equal(t, "Solution accepted", first.Message)

	stack.judge.setResponder(passFirst(1))
	second, err := stack.contests.SubmitSolution(ctx, user.ID, contest.ID, dto.ContestSubmitRequest{ProblemID: problem.ID, Code: "print(2)", Language: "python"})
	require.NoError(t, err)
	require.Zero(t, second.Submission.MarksAwarded)
	require.Equal(t, 1, second.Submission.TestCasesPassed)

	var rows []models.ContestSubmission
	require.NoError(t, stack.db.Where("user_id = ? AND contest_id = ?", user.ID, contest.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Zero(t, rows[0].MarksAwarded)
	require.Equal(t, "print(2)", rows[0].Code)

	_, err = stack.contests.SubmitSolution(ctx, user.ID, contest.ID, dto.ContestSubmitRequest{ProblemID: stray.ID, Code: "print(1)", Language: "python"})
	require.ErrorIs(t, err, ErrContestProblemMissing)

	var points int64
	require.NoError(t, stack.db.Model(&models.PointActivity{}).Count(&points).Error)
	require.Zero(t, points)
}

func TestContestLeaderboardAndRatingComputedOnce(t *testing.T) {
	stack := newGradingStack(t)
	alice := createUser(t, stack.db, "alice@example.com", false)
	bob := createUser(t, stack.db, "bob@example.com", false)
	easy := createProblem(t, stack.db, "contest-easy", models.DifficultyEasy, 1)
	hard := createProblem(t, stack.db, "contest-hard", models.DifficultyHard, 1)
	now := stack.clock.Now()
	contest := createContest(t, stack.db, now.Add(-time.Hour), now.Add(time.Hour), map[uint]int{easy.ID: 40, hard.ID: 60})
	ctx := context.Background()

	for _, user := range []models.User{alice, bob} {
		_, err := stack.contests.Register(ctx, user.ID, contest.ID)
		require.NoError(t, err)
	}

	submit := func(userID, problemID uint) {
		_, err := stack.contests.SubmitSolution(ctx, userID, contest.ID, dto.ContestSubmitRequest{ProblemID: problemID, Code: "print(1)", Language: "python"})
		require.NoError(t, err)
	}
	submit(alice.ID, easy.ID)
	submit(alice.ID, hard.ID)
	submit(bob.ID, easy.ID)

	board, err := stack.contests.Leaderboard(ctx, contest.ID)
	require.NoError(t, err)
	require.Equal(t, 100, board.MaxScore)
	require.Len(t, board.Entries, 2)
	require.Equal(t, alice.ID, board.Entries[0].UserID)
	require.Equal(t, 100, board.Entries[0].Score)
	require.Equal(t, 2, board.Entries[1].Rank)

	live, err := stack.contests.Report(ctx, alice.ID, contest.ID)
	require.NoError(t, err)
	require.False(t, live.Ended)
	require.Nil(t, live.Rating)

	stack.clock.Set(contest.EndTime.Add(time.Minute))
	report, err := stack.contests.Report(ctx, alice.ID, contest.ID)
	require.NoError(t, err)
	require.True(t, report.Ended)
	require.Equal(t, 1, report.Rank)
	require.Equal(t, 2, report.ParticipantCount)
	require.NotNil(t, report.Rating)
	require.Equal(t, 1200, report.Rating.OldRating)
	require.Equal(t, 1300, report.Rating.NewRating)

	refreshed, err := stack.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 1300, refreshed.ContestRating)

	again, err := stack.contests.Report(ctx, alice.ID, contest.ID)
	require.NoError(t, err)
	require.Equal(t, *report.Rating, *again.Rating)

	var ratings int64
	require.NoError(t, stack.db.Model(&models.ContestRating{}).Where("user_id = ?", alice.ID).Count(&ratings).Error)
	require.Equal(t, int64(1), ratings)

	bobReport, err := stack.contests.Report(ctx, bob.ID, contest.ID)
	require.NoError(t, err)
	require.Equal(t, 2, bobReport.Rank)
	require.Equal(t, 20, bobReport.Rating.Delta)

	_, err = stack.contests.Register(ctx, bob.ID, contest.ID)
	require.ErrorIs(t, err, ErrContestEnded)
}
