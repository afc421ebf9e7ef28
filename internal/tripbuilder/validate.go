package tripbuilder

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sangihetrip/internal/domain"
)

// FieldErrors maps a JSON field path to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e[k])
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(basicInfoOrder, basicInfo{})
	v.RegisterStructValidation(scheduleOrder, scheduleRule{})
	return v
}

type basicInfo struct {
	Name        string     `json:"name" validate:"required"`
	StartDate   *time.Time `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate" validate:"required"`
	PeopleCount int        `json:"peopleCount" validate:"gte=1"`
	TripType    string     `json:"tripType" validate:"required"`
}

// basicInfoOrder requires the trip to end strictly after it starts.
func basicInfoOrder(sl validator.StructLevel) {
	b := sl.Current().Interface().(basicInfo)
	if b.StartDate == nil || b.EndDate == nil {
		return
	}
	if !b.StartDate.Before(*b.EndDate) {
		sl.ReportError(b.EndDate, "endDate", "EndDate", "after", "startDate")
	}
}

type scheduleRule struct {
	Day           int    `json:"day" validate:"gte=1"`
	DestinationID string `json:"destinationId" validate:"required"`
	StartTime     string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime       string `json:"endTime" validate:"omitempty,datetime=15:04"`
}

func scheduleOrder(sl validator.StructLevel) {
	r := sl.Current().Interface().(scheduleRule)
	if r.StartTime == "" || r.EndTime == "" {
		return
	}
	start, err1 := time.Parse("15:04", r.StartTime)
	end, err2 := time.Parse("15:04", r.EndTime)
	if err1 != nil || err2 != nil {
		return
	}
	if !start.Before(end) {
		sl.ReportError(r.EndTime, "endTime", "EndTime", "after", "startTime")
	}
}

type budgetRule struct {
	Transport  float64 `json:"transport" validate:"gte=0"`
	Lodging    float64 `json:"lodging" validate:"gte=0"`
	Food       float64 `json:"food" validate:"gte=0"`
	Activities float64 `json:"activities" validate:"gte=0"`
}

// ValidateStep runs the validator owned by step. It returns nil or
// FieldErrors.
func ValidateStep(step Step, d domain.TripDraft) error {
	var errs FieldErrors
	switch step {
	case StepBasicInfo:
		errs = ValidateBasicInfo(d)
	case StepSchedule:
		errs = validateSchedule(d.Schedule)
	case StepBudget:
		errs = collect(validate.Struct(budgetRule(d.Budget)), "budget.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateBasicInfo checks the first step: name, both dates with start
// strictly before end, at least one person, and a trip type.
func ValidateBasicInfo(d domain.TripDraft) FieldErrors {
	return collect(validate.Struct(basicInfo{
		Name:        strings.TrimSpace(d.Name),
		StartDate:   timePtr(d.StartDate),
		EndDate:     timePtr(d.EndDate),
		PeopleCount: d.PeopleCount,
		TripType:    strings.TrimSpace(d.TripType),
	}), "")
}

func validateSchedule(items []domain.ScheduleItem) FieldErrors {
	errs := FieldErrors{}
	for i, item := range items {
		prefix := fmt.Sprintf("schedule[%d].", i)
		for k, v := range collect(validate.Struct(scheduleRule{
			Day:           item.Day,
			DestinationID: item.DestinationID,
			StartTime:     item.StartTime,
			EndTime:       item.EndTime,
		}), prefix) {
			errs[k] = v
		}
	}
	return errs
}

func collect(err error, prefix string) FieldErrors {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{prefix + "_": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[prefix+fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a time in HH:MM format", field)
	case "after":
		return fmt.Sprintf("%s must be after %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func timePtr(d domain.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
