package api

import (
	"time"

	"github.com/abhisek/assessly/internal/catalog"
)

// User is an account as seen by the API.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// Session is the result of a successful login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Assessment is one server-side attempt.
type Assessment struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"student_id"`
	Step           int        `json:"step"`
	StartedAt      time.Time  `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	Score          *int       `json:"score,omitempty"`
	CertifiedLevel string     `json:"certified_level,omitempty"`
}

// Question is the wire form of a question.
type Question struct {
	ID            string   `json:"id"`
	Competency    string   `json:"competency"`
	Level         string   `json:"level"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// ToCatalog converts the wire question into the domain type.
func (q Question) ToCatalog() catalog.Question {
	return catalog.Question{
		ID:            q.ID,
		Competency:    q.Competency,
		Level:         catalog.Level(q.Level),
		Prompt:        q.Question,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	}
}

// AnswerSubmission is one answered question in a submission.
type AnswerSubmission struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// SubmitResult is the server's verdict on a submission.
type SubmitResult struct {
	Score          int    `json:"score"`
	CertifiedLevel string `json:"certified_level"`
	CorrectCount   int    `json:"correct_count"`
	TotalQuestions int    `json:"total_questions"`
}

// Certificate is a downloaded certificate document.
type Certificate struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Health is the server status report.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// VerifyRequest confirms an email address.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

// LoginRequest exchanges credentials for a session.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type startRequest struct {
	StudentID string `json:"student_id"`
	Step      int    `json:"step"`
}

type submitRequest struct {
	Answers []AnswerSubmission `json:"answers"`
}

type questionsResponse struct {
	Questions []Question `json:"questions"`
}
