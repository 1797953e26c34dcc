package domain

import "time"

// DossierStatus enumerates the lifecycle of a tender dossier.
type DossierStatus string

const (
	DossierStatusDraft     DossierStatus = "draft"
	DossierStatusOpen      DossierStatus = "open"
	DossierStatusSubmitted DossierStatus = "submitted"
	DossierStatusClosed    DossierStatus = "closed"
)

// Dossier is a procurement dossier tracked by the platform.
type Dossier struct {
	ID        string
	Reference string
	Title     string
	Authority string
	Status    DossierStatus
	Deadline  *time.Time
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	Assignees []string
	Tasks     []DossierTask
}

// DossierTask tracks per-task completion inside a dossier.
type DossierTask struct {
	ID         string
	DossierID  string
	Label      string
	Completion int
	AssignedTo *string
	UpdatedAt  time.Time
}

// ClampCompletion bounds a completion percentage to [0, 100].
func ClampCompletion(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// IsAssigned reports whether the user participates in the dossier.
func (d Dossier) IsAssigned(userID string) bool {
	for _, id := range d.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// DossierSummary aggregates completion figures for export views.
type DossierSummary struct {
	DossierID         string
	Reference         string
	Title             string
	Status            DossierStatus
	TaskCount         int
	CompletedTasks    int
	AverageCompletion int
	AssigneeCount     int
}

// Summarize computes the aggregate view of the dossier.
func (d Dossier) Summarize() DossierSummary {
	summary := DossierSummary{
		DossierID:     d.ID,
		Reference:     d.Reference,
		Title:         d.Title,
		Status:        d.Status,
		TaskCount:     len(d.Tasks),
		AssigneeCount: len(d.Assignees),
	}

	if len(d.Tasks) == 0 {
		return summary
	}

	total := 0
	for _, task := range d.Tasks {
		total += ClampCompletion(task.Completion)
		if task.Completion >= 100 {
			summary.CompletedTasks++
		}
	}
	summary.AverageCompletion = total / len(d.Tasks)

	return summary
}
