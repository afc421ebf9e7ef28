package tripbuilder

import (
	"context"
	"errors"
	"net/http"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/domain"
)

var (
	// ErrSubmitInFlight rejects a second submit while one is running.
	ErrSubmitInFlight = errors.New("trip submission already in progress")
	// ErrAlreadySubmitted rejects submitting a completed wizard.
	ErrAlreadySubmitted = errors.New("trip already submitted")
)

// DefaultTripsPath is the backend's trip creation endpoint.
const DefaultTripsPath = "/trips"

// Doer is the part of the REST client the submitter needs.
type Doer interface {
	Do(ctx context.Context, sess apiclient.Session, req apiclient.Request, out any) (*apiclient.Envelope, error)
}

// Submitter sends completed drafts to the backend.
type Submitter struct {
	client Doer
	path   string
}

// NewSubmitter creates a submitter posting to DefaultTripsPath.
func NewSubmitter(client Doer) *Submitter {
	return &Submitter{client: client, path: DefaultTripsPath}
}

// Submit validates and posts the wizard's draft. Failures are recorded on the
// wizard as its error message and the wizard stays editable, so the user can
// fix the draft and retry. On success the wizard is completed.
func (s *Submitter) Submit(ctx context.Context, sess apiclient.Session, w *Wizard) error {
	payload, err := w.BeginSubmit()
	if err != nil {
		return err
	}
	return s.Send(ctx, sess, w, payload)
}

// BeginSubmit runs the submission gate and moves the wizard to
// StatusSubmitting. A gate failure is recorded as the wizard's error.
func (w *Wizard) BeginSubmit() (domain.TripPayload, error) {
	switch w.state.Status {
	case StatusSubmitting:
		return domain.TripPayload{}, ErrSubmitInFlight
	case StatusCompleted:
		return domain.TripPayload{}, ErrAlreadySubmitted
	}

	payload, err := BuildPayload(w.state.Draft)
	if err != nil {
		w.state.Error = err.Error()
		return domain.TripPayload{}, err
	}

	w.state.Status = StatusSubmitting
	w.state.Error = ""
	return payload, nil
}

// Send posts a payload returned by BeginSubmit and records the outcome on w.
func (s *Submitter) Send(ctx context.Context, sess apiclient.Session, w *Wizard, payload domain.TripPayload) error {
	var created domain.CreatedTrip
	_, err := s.client.Do(ctx, sess, apiclient.Request{
		Method: http.MethodPost,
		Path:   s.path,
		Body:   payload,
		Auth:   apiclient.AuthRequired,
	}, &created)
	if err != nil {
		w.state.Status = StatusEditing
		w.state.Error = submitMessage(err)
		return err
	}

	w.state.Status = StatusCompleted
	w.state.TripID = created.ID
	return nil
}

func submitMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, apiclient.ErrNoToken):
		return "please sign in to save your trip"
	default:
		return "failed to save the trip, please try again"
	}
}
