package tripbuilder

import (
	"errors"
	"sort"

	"sangihetrip/internal/domain"
)

var (
	// ErrNoDestination rejects a submission without destinations.
	ErrNoDestination = errors.New("no destination chosen")
	// ErrEmptySchedule rejects a submission without schedule items.
	ErrEmptySchedule = errors.New("schedule cannot be empty")
)

// CheckSubmittable is the gate run right before submission.
func CheckSubmittable(d domain.TripDraft) error {
	if len(d.SelectedDestinations) == 0 {
		return ErrNoDestination
	}
	if len(d.Schedule) == 0 {
		return ErrEmptySchedule
	}
	return nil
}

// BuildPayload converts the draft into the backend's trip creation schema.
// Schedule items are grouped by day in ascending order; items without a
// destination id are dropped.
func BuildPayload(d domain.TripDraft) (domain.TripPayload, error) {
	if err := CheckSubmittable(d); err != nil {
		return domain.TripPayload{}, err
	}

	destinations := make([]string, 0, len(d.SelectedDestinations))
	for _, dest := range d.SelectedDestinations {
		destinations = append(destinations, dest.ID)
	}

	packing := d.PackingList
	if packing == nil {
		packing = []string{}
	}

	return domain.TripPayload{
		Name:         d.Name,
		StartDate:    d.StartDate.Ptr(),
		EndDate:      d.EndDate.Ptr(),
		PeopleCount:  d.PeopleCount,
		TripType:     d.TripType,
		IsPublic:     d.IsPublic,
		Destinations: destinations,
		Schedule:     groupSchedule(d.Schedule),
		Budget:       d.Budget,
		Notes:        d.Notes,
		PackingList:  packing,
	}, nil
}

func groupSchedule(items []domain.ScheduleItem) []domain.ScheduleDay {
	byDay := make(map[int][]domain.ScheduleEntry)
	for _, item := range items {
		if item.DestinationID == "" {
			continue
		}
		byDay[item.Day] = append(byDay[item.Day], domain.ScheduleEntry{
			DestinationID: item.DestinationID,
			StartTime:     item.StartTime,
			EndTime:       item.EndTime,
			Activity:      item.Activity,
			Notes:         item.Notes,
		})
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	groups := make([]domain.ScheduleDay, 0, len(days))
	for _, day := range days {
		groups = append(groups, domain.ScheduleDay{Day: day, Items: byDay[day]})
	}
	return groups
}
