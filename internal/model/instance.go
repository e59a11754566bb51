package model

import "time"

type InstanceStatus string

const (
	InstanceSent      InstanceStatus = "sent"
	InstanceOpened    InstanceStatus = "opened"
	InstanceCompleted InstanceStatus = "completed"
)

// QuestionResult is the scored answer to one question
type QuestionResult struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
}

// SectionResult rolls up question results for one section
type SectionResult struct {
	Title     string           `json:"title"`
	Score     int              `json:"score"`
	MaxScore  int              `json:"maxScore"`
	Questions []QuestionResult `json:"questions"`
}

// InstanceResults is the breakdown stored on a completed instance
type InstanceResults struct {
	Sections []SectionResult `json:"sections"`
}

// Instance is a distributed copy of a template sent to one recipient
type Instance struct {
	ID            string           `json:"id"`
	TemplateID    string           `json:"templateId"`
	Title         string           `json:"title"`
	Email         string           `json:"email"`
	Status        InstanceStatus   `json:"status"`
	SentDate      time.Time        `json:"sentDate"`
	OpenedDate    *time.Time       `json:"openedDate,omitempty"`
	CompletedDate *time.Time       `json:"completedDate,omitempty"`
	Score         *int             `json:"score,omitempty"`
	MaxScore      *int             `json:"maxScore,omitempty"`
	IsCompliant   *bool            `json:"isCompliant,omitempty"`
	URL           string           `json:"url"`
	Results       *InstanceResults `json:"completedData,omitempty"`
}

// Answers maps a question id to the selected option ids
type Answers map[string][]string
