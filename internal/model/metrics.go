package model

// OverallMetrics summarizes every instance
type OverallMetrics struct {
	TotalInstances     int     `json:"totalInstances"`
	CompletedCount     int     `json:"completedCount"`
	CompliantCount     int     `json:"compliantCount"`
	NonCompliantCount  int     `json:"nonCompliantCount"`
	ComplianceRate     float64 `json:"complianceRate"` // percent of completed
	AverageScore       float64 `json:"averageScore"`   // percent
	CompletedThisMonth int     `json:"completedThisMonth"`
	CompletedLastMonth int     `json:"completedLastMonth"`
}

// TemplateMetrics is the per-template roll-up
type TemplateMetrics struct {
	TemplateID    string  `json:"templateId"`
	Name          string  `json:"name"`
	Instances     int     `json:"instances"`
	AverageScore  float64 `json:"averageScore"`
	CompliantRate float64 `json:"compliantRate"`
}

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
)

// Issue is a question commonly answered below its maximum score
type Issue struct {
	Issue       string   `json:"issue"`
	Occurrences int      `json:"occurrences"`
	Severity    Severity `json:"severity"`
}

// Metrics is the dashboard payload
type Metrics struct {
	Overall   OverallMetrics    `json:"overall"`
	Templates []TemplateMetrics `json:"templates"`
	TopIssues []Issue           `json:"topIssues"`
}
