package service

import (
	"context"
	"fmt"
	"formdesk/internal/cache"
	"formdesk/internal/model"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

const maxTopIssues = 5

// MetricsService computes dashboard metrics from the stored instances
type MetricsService struct {
	cache     cache.InstanceCache
	templates *TemplateService
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetricsService creates a new metrics service
func NewMetricsService(c cache.InstanceCache, templates *TemplateService, logger *zap.Logger) *MetricsService {
	return &MetricsService{
		cache:     c,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// Compute builds the dashboard metrics
func (s *MetricsService) Compute(ctx context.Context) (*model.Metrics, error) {
	list, err := s.cache.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	names := map[string]string{}
	if summaries, err := s.templates.List(ctx); err != nil {
		s.logger.Warn("template names unavailable", zap.Error(err))
	} else {
		for _, t := range summaries {
			names[t.ID] = t.Title
		}
	}

	return computeMetrics(list, names, s.now()), nil
}

type templateTally struct {
	metrics   model.TemplateMetrics
	completed int
	compliant int
	pctSum    float64
}

type issueTally struct {
	occurrences int
	zeroed      int
}

func computeMetrics(list []*model.Instance, names map[string]string, now time.Time) *model.Metrics {
	now = now.UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var overall model.OverallMetrics
	var pctSum float64
	tallies := map[string]*templateTally{}
	issues := map[string]*issueTally{}

	for _, inst := range list {
		overall.TotalInstances++

		tt, ok := tallies[inst.TemplateID]
		if !ok {
			name := names[inst.TemplateID]
			if name == "" {
				name = inst.Title
			}
			tt = &templateTally{metrics: model.TemplateMetrics{TemplateID: inst.TemplateID, Name: name}}
			tallies[inst.TemplateID] = tt
		}
		tt.metrics.Instances++

		if inst.Status != model.InstanceCompleted {
			continue
		}
		overall.CompletedCount++
		tt.completed++

		if inst.IsCompliant != nil && *inst.IsCompliant {
			overall.CompliantCount++
			tt.compliant++
		} else {
			overall.NonCompliantCount++
		}

		pct := percent(deref(inst.Score), deref(inst.MaxScore))
		pctSum += pct
		tt.pctSum += pct

		if d := inst.CompletedDate; d != nil {
			switch at := d.UTC(); {
			case !at.Before(thisMonth):
				overall.CompletedThisMonth++
			case !at.Before(lastMonth):
				overall.CompletedLastMonth++
			}
		}

		if inst.Results == nil {
			continue
		}
		for _, sec := range inst.Results.Sections {
			for _, q := range sec.Questions {
				if q.MaxScore <= 0 || q.Score >= q.MaxScore {
					continue
				}
				it, ok := issues[q.Question]
				if !ok {
					it = &issueTally{}
					issues[q.Question] = it
				}
				it.occurrences++
				if q.Score <= 0 {
					it.zeroed++
				}
			}
		}
	}

	if overall.CompletedCount > 0 {
		overall.ComplianceRate = round1(float64(overall.CompliantCount) * 100 / float64(overall.CompletedCount))
		overall.AverageScore = round1(pctSum / float64(overall.CompletedCount))
	}

	templates := make([]model.TemplateMetrics, 0, len(tallies))
	for _, tt := range tallies {
		if tt.completed > 0 {
			tt.metrics.AverageScore = round1(tt.pctSum / float64(tt.completed))
			tt.metrics.CompliantRate = round1(float64(tt.compliant) * 100 / float64(tt.completed))
		}
		templates = append(templates, tt.metrics)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].TemplateID < templates[j].TemplateID
	})

	top := make([]model.Issue, 0, len(issues))
	for text, it := range issues {
		sev := model.SeverityMedium
		if it.zeroed*2 > it.occurrences {
			sev = model.SeverityHigh
		}
		top = append(top, model.Issue{Issue: text, Occurrences: it.occurrences, Severity: sev})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Occurrences != top[j].Occurrences {
			return top[i].Occurrences > top[j].Occurrences
		}
		return top[i].Issue < top[j].Issue
	})
	if len(top) > maxTopIssues {
		top = top[:maxTopIssues]
	}

	return &model.Metrics{
		Overall:   overall,
		Templates: templates,
		TopIssues: top,
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// percent of score over max; a questionnaire with nothing to score counts as full marks
func percent(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 100
	}
	return float64(score) * 100 / float64(maxScore)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
