package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskTypeFeedbackEmail queue task name for feedback delivery
const TaskTypeFeedbackEmail = "email:feedback"

// MaxFeedbackCommentLength comments are cut to this many characters
const MaxFeedbackCommentLength = 5000

// Rating project rating value
type Rating string

const (
	RatingLike    Rating = "like"
	RatingDislike Rating = "dislike"
)

// ParseRating validates a rating value
func ParseRating(s string) (Rating, error) {
	switch Rating(s) {
	case RatingLike, RatingDislike:
		return Rating(s), nil
	default:
		return "", NewFieldError("rating", "rating must be like or dislike")
	}
}

// ProjectRating an owner's single rating with optional feedback comment
type ProjectRating struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Rating      Rating     `json:"rating"`
	Comment     string     `json:"comment"`
	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	TaskID      string     `json:"task_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RatingStats like/dislike totals across all owners
type RatingStats struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// RateRequest rating request
type RateRequest struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// FeedbackRequest feedback comment request
type FeedbackRequest struct {
	Comment string `json:"comment"`
}

// FeedbackResult outcome of a feedback submission
type FeedbackResult struct {
	TaskID string         `json:"task_id"`
	Rating *ProjectRating `json:"rating"`
}

// Feedback delivery states besides the queue's own task states
const (
	FeedbackStateNone    = "none"    // the owner never sent feedback
	FeedbackStateUnknown = "unknown" // the task expired or the queue is unavailable
)

// FeedbackStatus delivery state of the owner's last feedback email
type FeedbackStatus struct {
	TaskID      string     `json:"task_id,omitempty"`
	State       string     `json:"state"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
}

// FeedbackEmailPayload queue payload of the feedback email task
type FeedbackEmailPayload struct {
	UserID  int64  `json:"user_id"`
	Comment string `json:"comment"`
}

// NormalizeFeedbackComment trims, rejects blanks and caps length
func NormalizeFeedbackComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", NewFieldError("comment", "comment must not be empty")
	}
	if utf8.RuneCountInString(comment) > MaxFeedbackCommentLength {
		comment = string([]rune(comment)[:MaxFeedbackCommentLength])
	}
	return comment, nil
}
