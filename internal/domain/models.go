package domain

import "time"

// UnansweredChoice marks an Attempt whose question was shown but not answered yet.
const UnansweredChoice = -1

// User is read-only for the quiz core; accounts are owned by the auth layer.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin"`
	LastSeen time.Time `json:"lastSeen"`
}

// Choice is one selectable answer of a question.
type Choice struct {
	ID   int    `json:"id" validate:"gt=0"`
	Text string `json:"text" validate:"required"`
}

// Question is part of the quiz of the day it is scheduled on.
type Question struct {
	ID                 string    `json:"id"`
	ScheduledDate      time.Time `json:"scheduledDate" validate:"required"`
	Title              string    `json:"title" validate:"required"`
	Choices            []Choice  `json:"choices" validate:"min=2,dive"`
	CorrectChoiceID    int       `json:"correctChoiceId" validate:"gt=0"`
	AllowedTimeSeconds float64   `json:"allowedTimeSeconds" validate:"gt=0"`
	ImageRef           string    `json:"imageRef,omitempty"`
}

// ChoiceText returns the text of the given choice, or "" when it does not exist.
func (q Question) ChoiceText(id int) string {
	for _, c := range q.Choices {
		if c.ID == id {
			return c.Text
		}
	}
	return ""
}

// HasChoice reports whether id is one of the question's choices.
func (q Question) HasChoice(id int) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Attempt is the single record a user has for a question.
// At most one exists per (UserID, QuestionID).
type Attempt struct {
	UserID              string    `json:"userId"`
	QuestionID          string    `json:"questionId"`
	Date                time.Time `json:"date"`
	ChoiceID            int       `json:"choiceId"`
	ResponseTimeSeconds float64   `json:"responseTimeSeconds"`
}

// IsPlaceholder reports whether the question was shown but never answered.
func (a Attempt) IsPlaceholder() bool {
	return a.ChoiceID == UnansweredChoice
}

// Presentation remembers which question a user is currently looking at.
type Presentation struct {
	UserID             string    `json:"userId"`
	QuestionID         string    `json:"questionId"`
	ShownAt            time.Time `json:"shownAt"`
	AllowedTimeSeconds float64   `json:"allowedTimeSeconds"`
}

// DeliveredQuestion is what the quiz view renders for the next question.
type DeliveredQuestion struct {
	Question           Question `json:"question"`
	Index              int      `json:"index"` // 1-based position in today's quiz
	Total              int      `json:"total"`
	ReadingTimeSeconds float64  `json:"readingTimeSeconds"`
}

// ResultDetail is the per-question line of a Results report.
type ResultDetail struct {
	QuestionID        string  `json:"questionId"`
	QuestionTitle     string  `json:"questionTitle"`
	CorrectChoiceID   int     `json:"correctChoiceId"`
	CorrectChoiceText string  `json:"correctChoiceText"`
	ChosenChoiceID    int     `json:"chosenChoiceId"`
	Correct           bool    `json:"correct"`
	ResponseTime      float64 `json:"responseTime"`
}

// Results summarizes a user's attempts over a time range.
type Results struct {
	TotalQuestions  int            `json:"totalQuestions"`
	TotalPoints     int            `json:"totalPoints"`
	AvgResponseTime float64        `json:"avgResponseTime"`
	Details         []ResultDetail `json:"details"`
}

// Perfect reports whether every question in range was answered correctly.
// A user with no questions is never perfect.
func (r Results) Perfect() bool {
	return r.TotalQuestions > 0 && r.TotalPoints == r.TotalQuestions
}

// RankEntry is one leaderboard row.
type RankEntry struct {
	Score           int     `json:"score"`
	Username        string  `json:"username"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	Rank            int     `json:"rank"`
}

// DailyStats is the bundle of today's aggregate metrics.
type DailyStats struct {
	DailyAttendees     int     `json:"daily_attendees"`
	TotalUsersCount    int     `json:"total_users_count"`
	AttendeePercentage int     `json:"attendee_percentage"`
	DailyAverage       float64 `json:"daily_average"`
	DailyPerfectScores int     `json:"daily_perfect_scores"`
	DailyQuickestQuiz  float64 `json:"daily_quickest_quiz"`
}

// QuestionTally counts how often a question was answered right (or wrong) today.
type QuestionTally struct {
	QuestionID        string  `json:"questionId"`
	Title             string  `json:"title"`
	Count             int     `json:"count"`
	TotalResponseTime float64 `json:"totalResponseTime"`
}

// Difficulty holds today's most missed and most often right questions.
type Difficulty struct {
	Toughest []QuestionTally `json:"toughest"`
	Easiest  []QuestionTally `json:"easiest"`
}

// DailyScore is the number of correct answers on a day.
type DailyScore struct {
	Day     time.Time `json:"day"`
	Correct int       `json:"correct"`
}

// DailyTime is the averaged response time of a day's correct answers.
type DailyTime struct {
	Day             time.Time `json:"day"`
	AvgResponseTime float64   `json:"avgResponseTime"`
}

// ScoreHistory is a user's per-day record of correct answers.
type ScoreHistory struct {
	Scores []DailyScore `json:"scores"`
	Times  []DailyTime  `json:"times"`
}

// UserSummary is the admin view of a user's all-time standing.
type UserSummary struct {
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	LastSeen       time.Time `json:"lastSeen"`
	TotalPoints    int       `json:"totalPoints"`
	TotalQuestions int       `json:"totalQuestions"`
}
