package model

import "time"

// Template is a read-only questionnaire snapshot in the catalog
type Template struct {
	ID          string    `json:"id" bson:"_id" yaml:"id"`
	Title       string    `json:"title" bson:"title" yaml:"title"`
	Description string    `json:"description" bson:"description" yaml:"description"`
	Category    string    `json:"category" bson:"category" yaml:"category"`
	Sections    []Section `json:"sections" bson:"sections" yaml:"sections"`
	UpdatedAt   time.Time `json:"lastUpdated" bson:"updatedAt" yaml:"-"`
}

// Questionnaire returns a deep copy of the template content
func (t *Template) Questionnaire() Questionnaire {
	q := Questionnaire{Title: t.Title, Sections: t.Sections}
	return q.Clone()
}

// TemplateSummary is the list view of a template
type TemplateSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	SectionCount  int       `json:"sections"`
	QuestionCount int       `json:"questions"`
	UpdatedAt     time.Time `json:"lastUpdated"`
}

// Summary builds the list view of t
func (t *Template) Summary() TemplateSummary {
	q := Questionnaire{Sections: t.Sections}
	return TemplateSummary{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Category:      t.Category,
		SectionCount:  len(t.Sections),
		QuestionCount: q.QuestionCount(),
		UpdatedAt:     t.UpdatedAt,
	}
}
