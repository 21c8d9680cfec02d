package models

// All lists every model managed by automatic migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Problem{},
		&UserSolvedProblem{},
		&UserBadge{},
		&Submission{},
		&Contest{},
		&ContestProblem{},
		&ContestRegistration{},
		&ContestSubmission{},
		&ContestRating{},
		&Assessment{},
		&AssessmentSubmission{},
		&UserStreak{},
		&DailyActivity{},
		&PointActivity{},
		&Notification{},
	}
}
