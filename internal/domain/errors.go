package domain

import "errors"

var (
	// ErrNoQuizToday is returned when no questions are scheduled for today.
	ErrNoQuizToday = errors.New("no quiz scheduled today")
	// ErrOutsideQuizWindow is returned when the quiz is accessed outside its daily window.
	ErrOutsideQuizWindow = errors.New("quiz is not available at this time")
	// ErrNothingShown is returned when an answer arrives before any question was shown.
	ErrNothingShown = errors.New("no question is being shown")
	// ErrInvalidChoice is returned when an answer names a choice the question does not have.
	ErrInvalidChoice = errors.New("choice is not one of the question's choices")
	// ErrQuestionNotFound indicates the referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidQuestion indicates a question failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidPeriod indicates an unknown leaderboard period.
	ErrInvalidPeriod = errors.New("invalid time period")
)
