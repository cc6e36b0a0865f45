package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Course and lesson errors
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

// Exercise errors
var (
	// ErrUnknownExerciseKind marks malformed lesson data: the exercise
	// variant is missing or unrecognized and the lesson cannot be
	// evaluated. Distinct from "answer incorrect".
	ErrUnknownExerciseKind = errors.New("unknown exercise kind")
	ErrInvalidExercise     = errors.New("invalid exercise")
)

// Visit errors
var (
	ErrVisitNotFound  = errors.New("lesson visit not found")
	ErrVisitCompleted = errors.New("lesson visit already completed")
)

// Profile and progress errors
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrProgressNotFound = errors.New("course progress not found")
)

// Reward errors
var (
	// ErrDuplicateCompletion marks a replayed completion event for a
	// (learner, course, lesson) key the ledger has already honored.
	ErrDuplicateCompletion = errors.New("duplicate completion event")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
