package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTopicLength bounds the topic a caller may request cards for.
const MaxTopicLength = 200

// AgeGroup identifies the audience a course is written for.
type AgeGroup string

// Supported age groups.
const (
	AgeGroup5To7   AgeGroup = "5-7"
	AgeGroup8To10  AgeGroup = "8-10"
	AgeGroup11To12 AgeGroup = "11-12"
)

// CourseLength controls how many cards a course contains.
type CourseLength string

// Supported course lengths.
const (
	CourseLengthQuick    CourseLength = "quick"
	CourseLengthStandard CourseLength = "standard"
	CourseLengthDeep     CourseLength = "deep"
)

// cardCounts is the card count policy. Every CourseLength has exactly one entry.
var cardCounts = map[CourseLength]int{
	CourseLengthQuick:    5,
	CourseLengthStandard: 10,
	CourseLengthDeep:     15,
}

// styleDirectives is the age profile. Every AgeGroup has exactly one entry.
var styleDirectives = map[AgeGroup]string{
	AgeGroup5To7: "The content should be very simple, using short sentences and basic vocabulary. " +
		"Explain concepts in concrete terms with familiar examples. Include colorful descriptions " +
		"and fun facts that are easy to grasp. Content should be enthusiastic and encourage curiosity.",
	AgeGroup8To10: "The content should use moderate vocabulary with occasional new words explained in context. " +
		"Include more details and a broader range of facts. Make connections between concepts and " +
		"real-world applications. Content should be engaging and educational.",
	AgeGroup11To12: "The content can use more advanced vocabulary and introduce more complex concepts. " +
		"Include historical context, scientific principles, and deeper connections between ideas. " +
		"Content should be intellectually stimulating while still being accessible.",
}

// AgeGroups returns the supported age groups in ascending order.
func AgeGroups() []AgeGroup {
	return []AgeGroup{AgeGroup5To7, AgeGroup8To10, AgeGroup11To12}
}

// CourseLengths returns the supported course lengths from shortest to longest.
func CourseLengths() []CourseLength {
	return []CourseLength{CourseLengthQuick, CourseLengthStandard, CourseLengthDeep}
}

// IsValid reports whether the age group is supported.
func (a AgeGroup) IsValid() bool {
	_, ok := styleDirectives[a]
	return ok
}

// StyleDirective returns the writing style instruction for the age group.
func (a AgeGroup) StyleDirective() (string, bool) {
	d, ok := styleDirectives[a]
	return d, ok
}

// IsValid reports whether the course length is supported.
func (l CourseLength) IsValid() bool {
	_, ok := cardCounts[l]
	return ok
}

// CardCount returns the target number of cards for the course length.
func (l CourseLength) CardCount() (int, bool) {
	n, ok := cardCounts[l]
	return n, ok
}

// ParseAgeGroup converts a raw string into an AgeGroup.
func ParseAgeGroup(s string) (AgeGroup, error) {
	a := AgeGroup(strings.TrimSpace(s))
	if !a.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgeGroup, s)
	}
	return a, nil
}

// ParseCourseLength converts a raw string into a CourseLength.
func ParseCourseLength(s string) (CourseLength, error) {
	l := CourseLength(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCourseLength, s)
	}
	return l, nil
}

// GenerationRequest is the input to card generation.
type GenerationRequest struct {
	Topic        string       `json:"topic"`
	AgeGroup     AgeGroup     `json:"ageGroup"`
	CourseLength CourseLength `json:"courseLength"`
}

// NewGenerationRequest builds a validated request. The topic is trimmed.
func NewGenerationRequest(topic string, ageGroup AgeGroup, length CourseLength) (GenerationRequest, error) {
	req := GenerationRequest{
		Topic:        strings.TrimSpace(topic),
		AgeGroup:     ageGroup,
		CourseLength: length,
	}
	if err := req.Validate(); err != nil {
		return GenerationRequest{}, err
	}
	return req, nil
}

// Validate checks the request against the supported enumerations.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrEmptyTopic
	}
	if utf8.RuneCountInString(r.Topic) > MaxTopicLength {
		return fmt.Errorf("%w: max %d characters", ErrTopicTooLong, MaxTopicLength)
	}
	if !r.AgeGroup.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownAgeGroup, r.AgeGroup)
	}
	if !r.CourseLength.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownCourseLength, r.CourseLength)
	}
	return nil
}

// TargetCount is the card count policy lookup for the request. It returns
// zero when the course length is unknown.
func (r GenerationRequest) TargetCount() int {
	n, _ := r.CourseLength.CardCount()
	return n
}
