package tripbuilder

import (
	"time"

	"sangihetrip/internal/domain"
)

// Summary is derived from a draft for the review step and the completed view.
type Summary struct {
	BudgetTotal     float64 `json:"budgetTotal"`
	BudgetPerPerson float64 `json:"budgetPerPerson"`
	Days            int     `json:"days"`
	Nights          int     `json:"nights"`
	Destinations    int     `json:"destinations"`
	ScheduleItems   int     `json:"scheduleItems"`
}

// Summarize derives the summary of d.
func Summarize(d domain.TripDraft) Summary {
	s := Summary{
		BudgetTotal:   d.Budget.Total(),
		Destinations:  len(d.SelectedDestinations),
		ScheduleItems: len(d.Schedule),
	}
	if d.PeopleCount >= 1 {
		s.BudgetPerPerson = s.BudgetTotal / float64(d.PeopleCount)
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && !d.EndDate.Before(d.StartDate.Time) {
		s.Days = int(d.EndDate.Sub(d.StartDate.Time)/(24*time.Hour)) + 1
		s.Nights = s.Days - 1
	}
	return s
}
