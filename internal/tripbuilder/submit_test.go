package tripbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/domain"
)

type tokenSession struct{ token string }

func (s tokenSession) AccessToken() string       { return s.token }
func (s tokenSession) Expire(ctx context.Context) {}

type stubDoer struct {
	calls int
	got   apiclient.Request
	id    string
	err   error
}

func (d *stubDoer) Do(ctx context.Context, sess apiclient.Session, req apiclient.Request, out any) (*apiclient.Envelope, error) {
	d.calls++
	d.got = req
	if d.err != nil {
		return nil, d.err
	}
	if created, ok := out.(*domain.CreatedTrip); ok {
		created.ID = d.id
	}
	return &apiclient.Envelope{}, nil
}

func wizardWith(d domain.TripDraft) *Wizard {
	return Restore(State{Step: StepReview, Draft: d})
}

func TestSubmit_Success(t *testing.T) {
	doer := &stubDoer{id: "trip-42"}
	w := wizardWith(submittableDraft())

	err := NewSubmitter(doer).Submit(context.Background(), tokenSession{"tok"}, w)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, w.Status())
	assert.Equal(t, "trip-42", w.TripID())
	assert.Equal(t, http.MethodPost, doer.got.Method)
	assert.Equal(t, DefaultTripsPath, doer.got.Path)
	assert.Equal(t, apiclient.AuthRequired, doer.got.Auth)
	assert.IsType(t, domain.TripPayload{}, doer.got.Body)
}

func TestSubmit_GateBlocksNetwork(t *testing.T) {
	d := submittableDraft()
	d.Schedule = []domain.ScheduleItem{}
	doer := &stubDoer{}
	w := wizardWith(d)

	err := NewSubmitter(doer).Submit(context.Background(), tokenSession{"tok"}, w)

	assert.ErrorIs(t, err, ErrEmptySchedule)
	assert.Zero(t, doer.calls)
	assert.Equal(t, "schedule cannot be empty", w.Err())
	assert.Equal(t, StatusEditing, w.Status())
}

func TestSubmit_APIErrorKeepsDraft(t *testing.T) {
	d := submittableDraft()
	doer := &stubDoer{err: &apiclient.APIError{Status: http.StatusBadRequest, Message: "name already used"}}
	w := wizardWith(d)

	err := NewSubmitter(doer).Submit(context.Background(), tokenSession{"tok"}, w)
	require.Error(t, err)

	assert.Equal(t, "name already used", w.Err())
	assert.Equal(t, StatusEditing, w.Status())
	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, d, w.Draft())
}

func TestSubmit_RejectsRepeat(t *testing.T) {
	doer := &stubDoer{id: "t"}
	w := Restore(State{Step: StepReview, Draft: submittableDraft(), Status: StatusCompleted})
	assert.ErrorIs(t, NewSubmitter(doer).Submit(context.Background(), tokenSession{"tok"}, w), ErrAlreadySubmitted)

	w = Restore(State{Step: StepReview, Draft: submittableDraft(), Status: StatusSubmitting})
	assert.ErrorIs(t, NewSubmitter(doer).Submit(context.Background(), tokenSession{"tok"}, w), ErrSubmitInFlight)
	assert.Zero(t, doer.calls)
}

func TestBeginSubmit_MarksSubmittingBeforeSend(t *testing.T) {
	doer := &stubDoer{id: "trip-9"}
	w := wizardWith(submittableDraft())
	w.state.Error = "previous failure"

	payload, err := w.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitting, w.Status())
	assert.Empty(t, w.Err())
	assert.Zero(t, doer.calls)

	_, err = w.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	require.NoError(t, NewSubmitter(doer).Send(context.Background(), tokenSession{"tok"}, w, payload))
	assert.Equal(t, StatusCompleted, w.Status())
	assert.Equal(t, "trip-9", w.TripID())
	assert.Equal(t, payload, doer.got.Body)
}

func TestSubmit_AgainstBackend(t *testing.T) {
	var hits int32
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"trip-7"},"message":"created"}`))
	}))
	defer srv.Close()

	w := wizardWith(submittableDraft())
	err := NewSubmitter(apiclient.New(srv.URL)).Submit(context.Background(), tokenSession{"tok"}, w)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, "trip-7", w.TripID())
	assert.Equal(t, []any{"kahona", "tahuna"}, body["destinations"])
}

func TestSubmit_WithoutTokenNeverCallsBackend(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	w := wizardWith(submittableDraft())
	err := NewSubmitter(apiclient.New(srv.URL)).Submit(context.Background(), tokenSession{}, w)

	assert.True(t, errors.Is(err, apiclient.ErrNoToken))
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Equal(t, "please sign in to save your trip", w.Err())
}
