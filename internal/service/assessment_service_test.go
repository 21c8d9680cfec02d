package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
)

func createAssessment(t *testing.T, db *gorm.DB, slug, kind string, premium bool, questions ...models.AssessmentQuestion) models.Assessment {
	t.Helper()

	assessment := models.Assessment{
		Title:     slug,
		Slug:      slug,
		Type:      kind,
		IsPremium: premium,
		Questions: datatypes.JSONSlice[models.AssessmentQuestion](questions),
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

func intPtr(v int) *int { return &v }

func mcqQuestions() []models.AssessmentQuestion {
	return []models.AssessmentQuestion{
		{Prompt: "2+2", Options: []string{"3", "4"}, CorrectAnswer: 1},
		{Prompt: "3*3", Options: []string{"9", "6", "3"}, CorrectAnswer: 0},
		{Prompt: "1-1", Options: []string{"0", "1"}, CorrectAnswer: 0},
	}
}

func TestAssessmentStartReusesInProgressAttempt(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "quiz@example.com", false)
	assessment := createAssessment(t, stack.db, "basics", models.AssessmentTypeMCQ, false, mcqQuestions()...)
	ctx := context.Background()

	first, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusInProgress, first.Status)
	require.Equal(t, 3, first.TotalQuestions)

	second, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, first.SubmissionID, second.SubmissionID)

	_, err = stack.assessments.Start(ctx, user.ID, 999)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestAssessmentPremiumGate(t *testing.T) {
	stack := newGradingStack(t)
	free := createUser(t, stack.db, "free@example.com", false)
	premium := createUser(t, stack.db, "paid@example.com", true)
	assessment := createAssessment(t, stack.db, "advanced", models.AssessmentTypeMCQ, true, mcqQuestions()...)
	ctx := context.Background()

	_, err := stack.assessments.Start(ctx, free.ID, assessment.ID)
	require.ErrorIs(t, err, ErrPremiumRequired)
	require.ErrorIs(t, err, ErrForbidden)

	started, err := stack.assessments.Start(ctx, premium.ID, assessment.ID)
	require.NoError(t, err)

	completed, err := stack.assessments.Complete(ctx, premium.ID, assessment.ID, dto.AssessmentSubmissionRequest{SubmissionID: started.SubmissionID})
	require.NoError(t, err)
	require.Equal(t, DefaultPointsConfig().AssessmentPremium, completed.PointsAwarded)
}

func TestAssessmentMCQScoring(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "mcq@example.com", false)
	assessment := createAssessment(t, stack.db, "arith", models.AssessmentTypeMCQ, false, mcqQuestions()...)
	ctx := context.Background()

	started, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
	require.NoError(t, err)

	answer := func(index, option int) dto.AssessmentAnswerResponse {
		resp, err := stack.assessments.SubmitMCQAnswer(ctx, user.ID, assessment.ID, dto.MCQAnswerRequest{
			SubmissionID:   started.SubmissionID,
			QuestionIndex:  intPtr(index),
			SelectedOption: intPtr(option),
		})
		require.NoError(t, err)
		return resp
	}

	require.False(t, answer(0, 0).Answer.IsCorrect)
	require.True(t, answer(0, 1).Answer.IsCorrect)
	require.True(t, answer(1, 0).Answer.IsCorrect)
	require.False(t, answer(2, 1).Answer.IsCorrect)

	_, err = stack.assessments.SubmitMCQAnswer(ctx, user.ID, assessment.ID, dto.MCQAnswerRequest{
		SubmissionID: started.SubmissionID, QuestionIndex: intPtr(1), SelectedOption: intPtr(7),
	})
	require.ErrorIs(t, err, ErrOptionOutOfRange)

	_, err = stack.assessments.SubmitMCQAnswer(ctx, user.ID, assessment.ID, dto.MCQAnswerRequest{
		SubmissionID: started.SubmissionID, QuestionIndex: intPtr(5), SelectedOption: intPtr(0),
	})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	completed, err := stack.assessments.Complete(ctx, user.ID, assessment.ID, dto.AssessmentSubmissionRequest{SubmissionID: started.SubmissionID})
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusCompleted, completed.Status)
	require.Len(t, completed.Answers, 3)
	require.InDelta(t, 2.0, completed.Score, 1e-9)
	require.InDelta(t, 3.0, completed.TotalScore, 1e-9)
	require.InDelta(t, 200.0/3.0, completed.Percentage, 1e-9)
	require.NotNil(t, completed.EndTime)
	require.Equal(t, DefaultPointsConfig().AssessmentFree, completed.PointsAwarded)
	require.Empty(t, completed.BadgeUnlocked)

	_, err = stack.assessments.Complete(ctx, user.ID, assessment.ID, dto.AssessmentSubmissionRequest{SubmissionID: started.SubmissionID})
	require.ErrorIs(t, err, ErrAttemptClosed)

	other := createUser(t, stack.db, "intruder@example.com", false)
	reopened, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
	require.NoError(t, err)
	require.NotEqual(t, started.SubmissionID, reopened.SubmissionID)
	_, err = stack.assessments.Abandon(ctx, other.ID, assessment.ID, dto.AssessmentSubmissionRequest{SubmissionID: reopened.SubmissionID})
	require.ErrorIs(t, err, ErrAttemptForbidden)
}

func TestAssessmentCodingFractionalScore(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "coder@example.com", false)
	first := createProblem(t, stack.db, "assess-first", models.DifficultyEasy, 4)
	second := createProblem(t, stack.db, "assess-second", models.DifficultyEasy, 2)
	assessment := createAssessment(t, stack.db, "coding-round", models.AssessmentTypeCoding, false,
		models.AssessmentQuestion{Prompt: "first", ProblemID: first.ID},
		models.AssessmentQuestion{Prompt: "second", ProblemID: second.ID},
	)
	ctx := context.Background()

	started, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
	require.NoError(t, err)

	stack.judge.setResponder(passFirst(3))
	partial, err := stack.assessments.SubmitCodingAnswer(ctx, user.ID, assessment.ID, dto.CodingAnswerRequest{
		SubmissionID: started.SubmissionID, QuestionIndex: intPtr(0), Code: "print(1)", Language: "python",
	})
	require.NoError(t, err)
	require.Equal(t, 3, partial.Answer.TestCasesPassed)
	require.Equal(t, 4, partial.Answer.TotalTestCases)
	require.Equal(t, models.SubmissionStatusWrong, partial.Status)

	stack.judge.setResponder(acceptAll)
	_, err = stack.assessments.SubmitCodingAnswer(ctx, user.ID, assessment.ID, dto.CodingAnswerRequest{
		SubmissionID: started.SubmissionID, QuestionIndex: intPtr(1), Code: "print(1)", Language: "python",
	})
	require.NoError(t, err)

	_, err = stack.assessments.SubmitMCQAnswer(ctx, user.ID, assessment.ID, dto.MCQAnswerRequest{
		SubmissionID: started.SubmissionID, QuestionIndex: intPtr(0), SelectedOption: intPtr(0),
	})
	require.ErrorIs(t, err, ErrQuestionTypeInvalid)

	completed, err := stack.assessments.Complete(ctx, user.ID, assessment.ID, dto.AssessmentSubmissionRequest{SubmissionID: started.SubmissionID})
	require.NoError(t, err)
	require.InDelta(t, 1.75, completed.Score, 1e-9)
	require.InDelta(t, 87.5, completed.Percentage, 1e-9)
}

func TestAssessmentCodingAnswerWithoutHiddenCasesIsRejected(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "blank@example.com", false)
	problem := createProblem(t, stack.db, "assess-empty", models.DifficultyEasy, 0)
	assessment := createAssessment(t, stack.db, "empty-round", models.AssessmentTypeCoding, false,
		models.AssessmentQuestion{Prompt: "only", ProblemID: problem.ID},
	)
	ctx := context.Background()

	started, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
	require.NoError(t, err)

	_, err = stack.assessments.SubmitCodingAnswer(ctx, user.ID, assessment.ID, dto.CodingAnswerRequest{
		SubmissionID: started.SubmissionID, QuestionIndex: intPtr(0), Code: "print(1)", Language: "python",
	})
	require.ErrorIs(t, err, ErrNoTestCases)
	require.Zero(t, stack.judge.batches)
}

func TestAssessmentBadgeAtSecondCompletion(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "badge@example.com", false)
	ctx := context.Background()

	unlocked := make([]string, 0, 3)
	for _, slug := range []string{"round-1", "round-2", "round-3"} {
		assessment := createAssessment(t, stack.db, slug, models.AssessmentTypeMCQ, false, mcqQuestions()...)
		started, err := stack.assessments.Start(ctx, user.ID, assessment.ID)
		require.NoError(t, err)
		completed, err := stack.assessments.Complete(ctx, user.ID, assessment.ID, dto.AssessmentSubmissionRequest{SubmissionID: started.SubmissionID})
		require.NoError(t, err)
		unlocked = append(unlocked, completed.BadgeUnlocked)
	}

	require.Equal(t, []string{"", assessmentBadgeName, ""}, unlocked)

	refreshed, err := stack.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3*DefaultPointsConfig().AssessmentFree), refreshed.Points)
}

func TestScoreAssessment(t *testing.T) {
	answers := []models.AssessmentAnswer{
		{IsCorrect: true, TestCasesPassed: 1, TotalTestCases: 2},
		{IsCorrect: false, TestCasesPassed: 0, TotalTestCases: 0},
		{IsCorrect: true, TestCasesPassed: 3, TotalTestCases: 3},
	}

	require.InDelta(t, 2.0, ScoreAssessment(models.AssessmentTypeMCQ, answers), 1e-9)
	require.InDelta(t, 1.5, ScoreAssessment(models.AssessmentTypeCoding, answers), 1e-9)
	require.Zero(t, ScoreAssessment("essay", answers))
}
