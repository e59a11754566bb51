// Package designer holds the questionnaire document model edited by the designer
// and the operations that mutate it.
package designer

import (
	"formdesk/internal/model"
	"slices"
	"strings"
	"time"
)

// DefaultTitle is the title of a blank questionnaire
const DefaultTitle = "New Questionnaire"

// QuestionInput is the editable part of a question
type QuestionInput struct {
	Content      string           `json:"content"`
	ExtraContent string           `json:"extraContent,omitempty"`
	AnswerType   model.AnswerType `json:"answerType"`
	Options      []model.Option   `json:"options,omitempty"`
	Attachments  []string         `json:"attachments,omitempty"`
}

// Document is an in-memory questionnaire tree. Every mutation replaces the
// slices it touches instead of editing them in place, so snapshots handed out
// earlier never change underneath their holders.
//
// A Document is not safe for concurrent use; Session serializes access.
type Document struct {
	q     model.Questionnaire
	newID IDGenerator
	rev   uint64
}

// NewDocument wraps a copy of q. A nil gen uses NewID.
func NewDocument(q model.Questionnaire, gen IDGenerator) *Document {
	if gen == nil {
		gen = NewID
	}
	c := q.Clone()
	if c.Sections == nil {
		c.Sections = []model.Section{}
	}
	for i := range c.Sections {
		if c.Sections[i].Questions == nil {
			c.Sections[i].Questions = []model.Question{}
		}
	}
	return &Document{q: c, newID: gen}
}

// Blank returns an empty questionnaire titled title, or DefaultTitle when title is blank
func Blank(title string) model.Questionnaire {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return model.Questionnaire{Title: title, Sections: []model.Section{}}
}

// Snapshot returns a deep copy of the current tree
func (d *Document) Snapshot() model.Questionnaire {
	return d.q.Clone()
}

// Revision increases by one with every mutation that changed the tree
func (d *Document) Revision() uint64 {
	return d.rev
}

func (d *Document) touch() {
	d.rev++
}

func (d *Document) markSaved(at time.Time) {
	d.q.LastSavedAt = &at
}

// SetTitle replaces the questionnaire title
func (d *Document) SetTitle(title string) {
	if d.q.Title == title {
		return
	}
	d.q.Title = title
	d.touch()
}

// AddSection appends a new empty section
func (d *Document) AddSection(title, description string) (model.Section, error) {
	if strings.TrimSpace(title) == "" {
		return model.Section{}, &ValidationError{Field: "title", Message: "section title is required"}
	}
	s := model.Section{
		ID:          d.newID("section"),
		Title:       title,
		Description: description,
		Questions:   []model.Question{},
	}
	d.q.Sections = append(slices.Clip(d.q.Sections), s)
	d.touch()
	return s.Clone(), nil
}

// DeleteSection removes the section with the given id. It reports whether a
// section was removed; a missing id is not an error.
func (d *Document) DeleteSection(sectionID string) bool {
	i := d.sectionIndex(sectionID)
	if i < 0 {
		return false
	}
	d.q.Sections = slices.Delete(slices.Clone(d.q.Sections), i, i+1)
	d.touch()
	return true
}

// MoveSectionUp swaps the section at index with the one before it
func (d *Document) MoveSectionUp(index int) error {
	if err := d.checkSectionIndex(index); err != nil {
		return err
	}
	if index == 0 {
		return nil
	}
	d.q.Sections = swap(d.q.Sections, index, index-1)
	d.touch()
	return nil
}

// MoveSectionDown swaps the section at index with the one after it
func (d *Document) MoveSectionDown(index int) error {
	if err := d.checkSectionIndex(index); err != nil {
		return err
	}
	if index == len(d.q.Sections)-1 {
		return nil
	}
	d.q.Sections = swap(d.q.Sections, index, index+1)
	d.touch()
	return nil
}

// AddQuestion appends a question to the section
func (d *Document) AddQuestion(sectionID string, in QuestionInput) (model.Question, error) {
	q, err := d.buildQuestion(in)
	if err != nil {
		return model.Question{}, err
	}
	si := d.sectionIndex(sectionID)
	if si < 0 {
		return model.Question{}, &NotFoundError{Kind: "section", ID: sectionID}
	}
	q.ID = d.newID("question")

	sec := d.q.Sections[si]
	sec.Questions = append(slices.Clip(sec.Questions), q)
	d.replaceSection(si, sec)
	return q.Clone(), nil
}

// UpdateQuestion replaces the fields of an existing question, keeping its id and position
func (d *Document) UpdateQuestion(sectionID, questionID string, in QuestionInput) (model.Question, error) {
	q, err := d.buildQuestion(in)
	if err != nil {
		return model.Question{}, err
	}
	si := d.sectionIndex(sectionID)
	if si < 0 {
		return model.Question{}, &NotFoundError{Kind: "section", ID: sectionID}
	}
	sec := d.q.Sections[si]
	qi := questionIndex(sec.Questions, questionID)
	if qi < 0 {
		return model.Question{}, &NotFoundError{Kind: "question", ID: questionID}
	}
	q.ID = questionID

	sec.Questions = slices.Clone(sec.Questions)
	sec.Questions[qi] = q
	d.replaceSection(si, sec)
	return q.Clone(), nil
}

// DeleteQuestion removes a question. It reports whether anything was removed.
func (d *Document) DeleteQuestion(sectionID, questionID string) bool {
	si := d.sectionIndex(sectionID)
	if si < 0 {
		return false
	}
	sec := d.q.Sections[si]
	qi := questionIndex(sec.Questions, questionID)
	if qi < 0 {
		return false
	}
	sec.Questions = slices.Delete(slices.Clone(sec.Questions), qi, qi+1)
	d.replaceSection(si, sec)
	return true
}

// ReorderQuestions moves the question at from to position to within one section
func (d *Document) ReorderQuestions(sectionID string, from, to int) error {
	si := d.sectionIndex(sectionID)
	if si < 0 {
		return &NotFoundError{Kind: "section", ID: sectionID}
	}
	sec := d.q.Sections[si]
	reordered, err := Reorder(sec.Questions, from, to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	sec.Questions = reordered
	d.replaceSection(si, sec)
	return nil
}

func (d *Document) replaceSection(i int, sec model.Section) {
	sections := slices.Clone(d.q.Sections)
	sections[i] = sec
	d.q.Sections = sections
	d.touch()
}

func (d *Document) checkSectionIndex(index int) error {
	if index < 0 || index >= len(d.q.Sections) {
		return &IndexError{Index: index, Len: len(d.q.Sections)}
	}
	return nil
}

func (d *Document) sectionIndex(id string) int {
	return slices.IndexFunc(d.q.Sections, func(s model.Section) bool { return s.ID == id })
}

func questionIndex(questions []model.Question, id string) int {
	return slices.IndexFunc(questions, func(q model.Question) bool { return q.ID == id })
}

// buildQuestion validates in and returns the question without an id
func (d *Document) buildQuestion(in QuestionInput) (model.Question, error) {
	if strings.TrimSpace(in.Content) == "" {
		return model.Question{}, &ValidationError{Field: "content", Message: "question content is required"}
	}
	answerType := model.AnswerText
	if in.AnswerType != "" {
		t, ok := model.ParseAnswerType(string(in.AnswerType))
		if !ok {
			return model.Question{}, &ValidationError{Field: "answerType", Message: "unknown answer type " + string(in.AnswerType)}
		}
		answerType = t
	}

	q := model.Question{
		Content:      in.Content,
		ExtraContent: in.ExtraContent,
		AnswerType:   answerType,
	}
	if len(in.Attachments) > 0 {
		q.Attachments = slices.Clone(in.Attachments)
	}
	if !answerType.IsChoice() {
		return q, nil
	}
	if len(in.Options) == 0 {
		return model.Question{}, &ValidationError{Field: "options", Message: "choice questions need at least one option"}
	}

	seen := make(map[string]bool, len(in.Options))
	q.Options = make([]model.Option, len(in.Options))
	for i, opt := range in.Options {
		if opt.ID == "" || seen[opt.ID] {
			opt.ID = d.newID("option")
		}
		seen[opt.ID] = true
		q.Options[i] = opt
	}
	return q, nil
}
