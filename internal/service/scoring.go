package service

import (
	"formdesk/internal/model"
	"strings"
)

// DefaultComplianceThreshold is the score percentage needed to be compliant
const DefaultComplianceThreshold = 75

// scoreQuestion scores the answer to one question.
// Single choice takes the selected option, multiple choice sums every selected option.
// The max is the best option for single choice and the sum of positive scores for multiple choice.
func scoreQuestion(q model.Question, selected []string) model.QuestionResult {
	res := model.QuestionResult{
		QuestionID: q.ID,
		Question:   q.Content,
	}
	if !q.AnswerType.IsChoice() {
		res.Answer = strings.Join(selected, ", ")
		return res
	}

	picked := make(map[string]bool, len(selected))
	for _, id := range selected {
		picked[id] = true
	}

	var texts []string
	first := true
	for _, o := range q.Options {
		switch q.AnswerType {
		case model.AnswerOption:
			if first || o.Score > res.MaxScore {
				res.MaxScore = o.Score
			}
			first = false
		case model.AnswerMultiOption:
			if o.Score > 0 {
				res.MaxScore += o.Score
			}
		}
		if !picked[o.ID] {
			continue
		}
		if q.AnswerType == model.AnswerOption && len(texts) > 0 {
			continue
		}
		texts = append(texts, o.Text)
		res.Score += o.Score
	}
	res.Answer = strings.Join(texts, ", ")
	return res
}

// scoreAnswers scores answers against the questionnaire and rolls results
// up per section and overall
func scoreAnswers(q model.Questionnaire, answers model.Answers) (results model.InstanceResults, score, maxScore int) {
	results.Sections = make([]model.SectionResult, 0, len(q.Sections))
	for _, sec := range q.Sections {
		sr := model.SectionResult{
			Title:     sec.Title,
			Questions: make([]model.QuestionResult, 0, len(sec.Questions)),
		}
		for _, question := range sec.Questions {
			qr := scoreQuestion(question, answers[question.ID])
			sr.Score += qr.Score
			sr.MaxScore += qr.MaxScore
			sr.Questions = append(sr.Questions, qr)
		}
		score += sr.Score
		maxScore += sr.MaxScore
		results.Sections = append(results.Sections, sr)
	}
	return results, score, maxScore
}

// isCompliant reports score/maxScore >= threshold percent without rounding
func isCompliant(score, maxScore, threshold int) bool {
	return score*100 >= threshold*maxScore
}
