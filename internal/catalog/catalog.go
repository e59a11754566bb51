// Package catalog provides the built-in questionnaire templates and loads
// template files in the same YAML format.
package catalog

import (
	_ "embed"
	"fmt"
	"formdesk/internal/model"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Defaults returns the built-in templates
func Defaults() ([]model.Template, error) {
	return Parse(defaultTemplates)
}

// LoadFile reads templates from a YAML file
func LoadFile(path string) ([]model.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML list of templates
func Parse(data []byte) ([]model.Template, error) {
	var templates []model.Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	ids := make(map[string]bool, len(templates))
	for i := range templates {
		t := &templates[i]
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: missing id", i)
		}
		if ids[t.ID] {
			return nil, fmt.Errorf("template %s: duplicate id", t.ID)
		}
		ids[t.ID] = true
		if err := normalize(t); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
	}
	return templates, nil
}

func normalize(t *model.Template) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("missing title")
	}
	for si := range t.Sections {
		sec := &t.Sections[si]
		if sec.ID == "" {
			return fmt.Errorf("section %d: missing id", si)
		}
		if sec.Questions == nil {
			sec.Questions = []model.Question{}
		}
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			if q.ID == "" {
				return fmt.Errorf("section %s question %d: missing id", sec.ID, qi)
			}
			at, ok := model.ParseAnswerType(string(q.AnswerType))
			if !ok {
				return fmt.Errorf("question %s: unknown answer type %q", q.ID, q.AnswerType)
			}
			q.AnswerType = at
			if at.IsChoice() && len(q.Options) == 0 {
				return fmt.Errorf("question %s: choice question without options", q.ID)
			}
			if !at.IsChoice() {
				q.Options = nil
			}
		}
	}
	return nil
}
