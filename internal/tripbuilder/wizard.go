// Package tripbuilder holds the trip-builder wizard: the draft being edited,
// the step it is on, per-step validation and the conversion of the draft into
// the backend's trip creation payload.
package tripbuilder

import (
	"errors"
	"fmt"

	"sangihetrip/internal/domain"
)

// Step is a wizard step, numbered from 1.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepDestinations
	StepSchedule
	StepBudget
	StepReview
)

const (
	FirstStep = StepBasicInfo
	LastStep  = StepReview
)

var stepNames = map[Step]string{
	StepBasicInfo:    "basic-info",
	StepDestinations: "destinations",
	StepSchedule:     "schedule",
	StepBudget:       "budget",
	StepReview:       "review",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is within the wizard's range.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Status is the lifecycle of a wizard.
type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
)

// ErrInvalidStep is returned by GoToStep for steps outside 1..5.
var ErrInvalidStep = errors.New("invalid wizard step")

// State is the serializable form of a wizard.
type State struct {
	Step   Step             `json:"step"`
	Draft  domain.TripDraft `json:"draft"`
	Status Status           `json:"status"`
	Error  string           `json:"error,omitempty"`
	TripID string           `json:"tripId,omitempty"`
}

// Wizard owns one trip draft and the current step. It is not safe for
// concurrent use.
type Wizard struct {
	state State
}

// New starts a wizard on the first step with a default draft.
func New() *Wizard {
	return &Wizard{state: State{
		Step:   FirstStep,
		Draft:  domain.NewTripDraft(),
		Status: StatusEditing,
	}}
}

// Restore rebuilds a wizard from a saved state.
func Restore(s State) *Wizard {
	if !s.Step.Valid() {
		s.Step = FirstStep
	}
	if s.Status == "" {
		s.Status = StatusEditing
	}
	return &Wizard{state: s}
}

// State returns the wizard's current state.
func (w *Wizard) State() State { return w.state }

// Step returns the current step.
func (w *Wizard) Step() Step { return w.state.Step }

// Draft returns the current draft.
func (w *Wizard) Draft() domain.TripDraft { return w.state.Draft }

// Status returns the lifecycle status.
func (w *Wizard) Status() Status { return w.state.Status }

// Err returns the last submission error message, or "".
func (w *Wizard) Err() string { return w.state.Error }

// TripID returns the created trip's id once completed.
func (w *Wizard) TripID() string { return w.state.TripID }

// Patch is a partial draft update. Nil fields are left untouched.
type Patch struct {
	Name                 *string                `json:"name,omitempty"`
	StartDate            *domain.Date           `json:"startDate,omitempty"`
	EndDate              *domain.Date           `json:"endDate,omitempty"`
	PeopleCount          *int                   `json:"peopleCount,omitempty"`
	TripType             *string                `json:"tripType,omitempty"`
	SelectedDestinations *[]domain.Destination  `json:"selectedDestinations,omitempty"`
	Schedule             *[]domain.ScheduleItem `json:"schedule,omitempty"`
	Budget               *domain.Budget         `json:"budget,omitempty"`
	Notes                *string                `json:"notes,omitempty"`
	PackingList          *[]string              `json:"packingList,omitempty"`
	IsPublic             *bool                  `json:"isPublic,omitempty"`
}

// UpdateTripData merges p into the draft. It never validates.
func (w *Wizard) UpdateTripData(p Patch) {
	d := &w.state.Draft
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.StartDate != nil {
		d.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		d.EndDate = *p.EndDate
	}
	if p.PeopleCount != nil {
		d.PeopleCount = *p.PeopleCount
	}
	if p.TripType != nil {
		d.TripType = *p.TripType
	}
	if p.SelectedDestinations != nil {
		d.SelectedDestinations = *p.SelectedDestinations
	}
	if p.Schedule != nil {
		d.Schedule = *p.Schedule
	}
	if p.Budget != nil {
		d.Budget = *p.Budget
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
	if p.PackingList != nil {
		d.PackingList = *p.PackingList
	}
	if p.IsPublic != nil {
		d.IsPublic = *p.IsPublic
	}
}

// NextStep advances one step; it does nothing on the last step. Leaving the
// destinations step drops schedule items whose destination is no longer
// selected.
func (w *Wizard) NextStep() {
	if w.state.Step >= LastStep {
		return
	}
	if w.state.Step == StepDestinations {
		kept := pruneSchedule(w.state.Draft)
		w.UpdateTripData(Patch{Schedule: &kept})
	}
	w.state.Step++
}

// PrevStep goes back one step; it does nothing on the first step.
func (w *Wizard) PrevStep() {
	if w.state.Step <= FirstStep {
		return
	}
	w.state.Step--
}

// GoToStep jumps to n without validating the steps in between.
func (w *Wizard) GoToStep(n Step) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(n))
	}
	w.state.Step = n
	return nil
}

func pruneSchedule(d domain.TripDraft) []domain.ScheduleItem {
	kept := make([]domain.ScheduleItem, 0, len(d.Schedule))
	for _, item := range d.Schedule {
		if d.HasDestination(item.DestinationID) {
			kept = append(kept, item)
		}
	}
	return kept
}
