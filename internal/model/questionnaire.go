package model

import (
	"strings"
	"time"
)

// AnswerType defines how a question is answered
type AnswerType string

const (
	AnswerText        AnswerType = "text"
	AnswerNumber      AnswerType = "number"
	AnswerOption      AnswerType = "option"       // single choice
	AnswerMultiOption AnswerType = "multi-option" // multiple choice
)

// ParseAnswerType normalizes an answer type coming from a client.
// "single-option" is accepted as an alias of "option".
func ParseAnswerType(s string) (AnswerType, bool) {
	switch AnswerType(strings.ToLower(strings.TrimSpace(s))) {
	case AnswerText:
		return AnswerText, true
	case AnswerNumber:
		return AnswerNumber, true
	case AnswerOption, "single-option":
		return AnswerOption, true
	case AnswerMultiOption:
		return AnswerMultiOption, true
	}
	return "", false
}

// IsChoice reports whether the answer type carries scored options
func (t AnswerType) IsChoice() bool {
	return t == AnswerOption || t == AnswerMultiOption
}

// Option is one selectable answer with its compliance score
type Option struct {
	ID    string `json:"id" bson:"id" yaml:"id"`
	Text  string `json:"text" bson:"text" yaml:"text"`
	Score int    `json:"score" bson:"score" yaml:"score"`
}

// Question is a single prompt inside a section
type Question struct {
	ID           string     `json:"id" bson:"id" yaml:"id"`
	Content      string     `json:"content" bson:"content" yaml:"content"`
	ExtraContent string     `json:"extraContent,omitempty" bson:"extraContent,omitempty" yaml:"extraContent,omitempty"`
	AnswerType   AnswerType `json:"answerType" bson:"answerType" yaml:"answerType"`
	Options      []Option   `json:"options,omitempty" bson:"options,omitempty" yaml:"options,omitempty"`
	Attachments  []string   `json:"attachments,omitempty" bson:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Section groups questions; its position in the questionnaire is its display order
type Section struct {
	ID          string     `json:"id" bson:"id" yaml:"id"`
	Title       string     `json:"title" bson:"title" yaml:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Questions   []Question `json:"questions" bson:"questions" yaml:"questions"`
}

// Questionnaire is the document edited in the designer
type Questionnaire struct {
	Title       string     `json:"title" bson:"title" yaml:"title"`
	Sections    []Section  `json:"sections" bson:"sections" yaml:"sections"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty" bson:"lastSavedAt,omitempty" yaml:"-"`
}

// QuestionCount returns the number of questions across all sections
func (q *Questionnaire) QuestionCount() int {
	n := 0
	for _, s := range q.Sections {
		n += len(s.Questions)
	}
	return n
}

// Clone returns a deep copy that shares no slices with q
func (q *Questionnaire) Clone() Questionnaire {
	out := Questionnaire{
		Title:    q.Title,
		Sections: make([]Section, len(q.Sections)),
	}
	if q.LastSavedAt != nil {
		t := *q.LastSavedAt
		out.LastSavedAt = &t
	}
	for i, s := range q.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the section
func (s Section) Clone() Section {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q.Clone()
	}
	return out
}

// Clone returns a deep copy of the question
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]Option(nil), q.Options...)
	}
	if q.Attachments != nil {
		out.Attachments = append([]string(nil), q.Attachments...)
	}
	return out
}

// DraftSummary describes a questionnaire in progress for list views
type DraftSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	SectionCount  int        `json:"sections"`
	QuestionCount int        `json:"questions"`
	LastSavedAt   *time.Time `json:"lastSavedAt,omitempty"`
}
