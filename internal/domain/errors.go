// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownAgeGroup is returned when an age group is outside the supported set.
	ErrUnknownAgeGroup = errors.New("unknown age group")

	// ErrUnknownCourseLength is returned when a course length is outside the supported set.
	ErrUnknownCourseLength = errors.New("unknown course length")

	// ErrEmptyTopic is returned when a topic is blank.
	ErrEmptyTopic = errors.New("topic cannot be empty")

	// ErrTopicTooLong is returned when a topic exceeds MaxTopicLength runes.
	ErrTopicTooLong = errors.New("topic is too long")
)
