package services

import "errors"

var (
	// ErrInsufficientHistory means the user has not logged enough training to build quests from.
	// Callers surface it as an empty state, never as a failure.
	ErrInsufficientHistory = errors.New("insufficient workout history")

	// ErrMalformedResponse means generator output failed structural validation
	ErrMalformedResponse = errors.New("malformed generator response")

	// ErrGenerationFailed is the terminal error once every generation attempt has been used
	ErrGenerationFailed = errors.New("quest generation failed")

	ErrQuestNotFound   = errors.New("quest not found")
	ErrQuestNotOwned   = errors.New("quest belongs to another user")
	ErrInvalidDuration = errors.New("invalid quest duration")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPoints   = errors.New("points amount must be a positive whole number")

	ErrInvalidWorkout    = errors.New("invalid workout")
	ErrGuestWorkoutLimit = errors.New("guest accounts are limited to 5 workouts")
	ErrWorkoutsExist     = errors.New("user already has workouts")
)
