package service

import (
	"errors"

	"github.com/noah-isme/gema-judge-api/internal/grading"
)

// Error categories. Handlers map them to HTTP statuses with errors.Is; anything outside
// these categories is an internal error.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrJudgeUnavailable = errors.New("judge unavailable")
	ErrUnavailable      = errors.New("service unavailable")
)

type categoryError struct {
	message  string
	category error
}

func (e *categoryError) Error() string { return e.message }

func (e *categoryError) Unwrap() error { return e.category }

func newCategoryError(category error, message string) error {
	return &categoryError{message: message, category: category}
}

var (
	ErrProblemNotFound       = newCategoryError(ErrNotFound, "problem not found")
	ErrSubmissionNotFound    = newCategoryError(ErrNotFound, "submission not found")
	ErrContestNotFound       = newCategoryError(ErrNotFound, "contest not found")
	ErrContestProblemMissing = newCategoryError(ErrNotFound, "problem is not part of this contest")
	ErrAssessmentNotFound    = newCategoryError(ErrNotFound, "assessment not found")
	ErrAttemptNotFound       = newCategoryError(ErrNotFound, "assessment submission not found")
	ErrQuestionNotFound      = newCategoryError(ErrNotFound, "question not found")
	ErrUserNotFound          = newCategoryError(ErrNotFound, "user not found")
	ErrNotificationNotFound  = newCategoryError(ErrNotFound, "notification not found")

	ErrMissingIdentifiers  = newCategoryError(ErrBadRequest, "user and target identifiers are required")
	ErrUnsupportedLanguage = newCategoryError(ErrBadRequest, "unsupported language")
	ErrBinarySource        = newCategoryError(ErrBadRequest, "source code must be plain text")
	ErrQuestionTypeInvalid = newCategoryError(ErrBadRequest, "question type does not match the answer")
	ErrOptionOutOfRange    = newCategoryError(ErrBadRequest, "selected option is out of range")
	ErrNoTestCases         = newCategoryError(ErrBadRequest, "problem has no test cases")

	ErrSubmissionForbidden = newCategoryError(ErrForbidden, "submission belongs to another user")
	ErrNotRegistered       = newCategoryError(ErrForbidden, "user is not registered for this contest")
	ErrContestNotLive      = newCategoryError(ErrForbidden, "contest is not accepting submissions")
	ErrContestEnded        = newCategoryError(ErrForbidden, "contest has already ended")
	ErrPremiumRequired     = newCategoryError(ErrForbidden, "premium subscription required")
	ErrAttemptForbidden    = newCategoryError(ErrForbidden, "assessment submission belongs to another user")

	ErrAttemptClosed = newCategoryError(ErrConflict, "assessment submission is no longer in progress")

	ErrAnalyzerUnavailable = newCategoryError(ErrUnavailable, "complexity analysis is not configured")
)

// translateGradingError maps runner failures onto the service categories.
func translateGradingError(err error) error {
	switch {
	case errors.Is(err, grading.ErrUnsupportedLanguage):
		return ErrUnsupportedLanguage
	case errors.Is(err, grading.ErrNoTestCases):
		return ErrNoTestCases
	case errors.Is(err, grading.ErrJudgeUnavailable):
		return &categoryError{message: err.Error(), category: ErrJudgeUnavailable}
	default:
		return err
	}
}
