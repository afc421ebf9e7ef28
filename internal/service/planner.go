package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/config"
	"sangihetrip/internal/domain"
	"sangihetrip/internal/redis"
	"sangihetrip/internal/tripbuilder"
)

// PlannerService runs trip-builder wizards whose state lives in Redis
// between requests. Each draft belongs to the subject that created it.
type PlannerService struct {
	drafts    redis.DraftStoreInterface
	locks     redis.LockStoreInterface
	submitter *tripbuilder.Submitter
	draftTTL  time.Duration
	lockTTL   time.Duration
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewPlannerService creates a new PlannerService.
func NewPlannerService(
	drafts redis.DraftStoreInterface,
	locks redis.LockStoreInterface,
	submitter *tripbuilder.Submitter,
	cfg config.PlannerConfig,
	logger *zap.Logger,
) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannerService{
		drafts:    drafts,
		locks:     locks,
		submitter: submitter,
		draftTTL:  cfg.DraftTTL,
		lockTTL:   cfg.DraftLockTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNotifier sends submission outcomes to n.
func (s *PlannerService) WithNotifier(n Notifier) *PlannerService {
	s.notifier = n
	return s
}

// PlannerView is a draft as shown to its owner.
type PlannerView struct {
	ID        string              `json:"id"`
	Step      tripbuilder.Step    `json:"step"`
	StepName  string              `json:"stepName"`
	Status    tripbuilder.Status  `json:"status"`
	Draft     domain.TripDraft    `json:"draft"`
	Error     string              `json:"error,omitempty"`
	TripID    string              `json:"tripId,omitempty"`
	Summary   tripbuilder.Summary `json:"summary"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func newView(d *redis.StoredDraft) *PlannerView {
	return &PlannerView{
		ID:        d.ID,
		Step:      d.State.Step,
		StepName:  d.State.Step.String(),
		Status:    d.State.Status,
		Draft:     d.State.Draft,
		Error:     d.State.Error,
		TripID:    d.State.TripID,
		Summary:   tripbuilder.Summarize(d.State.Draft),
		UpdatedAt: d.UpdatedAt,
	}
}

// Create starts a new wizard for owner.
func (s *PlannerService) Create(ctx context.Context, owner string) (*PlannerView, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	now := s.now()
	draft := &redis.StoredDraft{
		ID:        uuid.New().String(),
		Owner:     owner,
		State:     tripbuilder.New().State(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.drafts.SaveDraft(ctx, draft, s.draftTTL); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	s.logger.Info("planner draft created", zap.String("draft_id", draft.ID), zap.String("owner", owner))
	return newView(draft), nil
}

// Get returns a draft.
func (s *PlannerService) Get(ctx context.Context, owner, id string) (*PlannerView, error) {
	draft, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return newView(draft), nil
}

// Update merges patch into the draft without validating it. Schedule items
// without an id get one.
func (s *PlannerService) Update(ctx context.Context, owner, id string, patch tripbuilder.Patch) (*PlannerView, error) {
	if patch.Schedule != nil {
		items := make([]domain.ScheduleItem, len(*patch.Schedule))
		copy(items, *patch.Schedule)
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
		}
		patch.Schedule = &items
	}

	return s.mutate(ctx, owner, id, func(w *tripbuilder.Wizard) error {
		w.UpdateTripData(patch)
		return nil
	})
}

// Next validates the current step and advances. Validation failures are
// returned as tripbuilder.FieldErrors and leave the draft unchanged.
func (s *PlannerService) Next(ctx context.Context, owner, id string) (*PlannerView, error) {
	return s.mutate(ctx, owner, id, func(w *tripbuilder.Wizard) error {
		if err := tripbuilder.ValidateStep(w.Step(), w.Draft()); err != nil {
			return err
		}
		w.NextStep()
		return nil
	})
}

// Prev goes back one step.
func (s *PlannerService) Prev(ctx context.Context, owner, id string) (*PlannerView, error) {
	return s.mutate(ctx, owner, id, func(w *tripbuilder.Wizard) error {
		w.PrevStep()
		return nil
	})
}

// GoTo jumps to step without validating the steps in between.
func (s *PlannerService) GoTo(ctx context.Context, owner, id string, step tripbuilder.Step) (*PlannerView, error) {
	return s.mutate(ctx, owner, id, func(w *tripbuilder.Wizard) error {
		return w.GoToStep(step)
	})
}

// Submit sends the draft to the backend. It holds the draft lock for the
// whole submission and saves StatusSubmitting before the backend call, so
// edits and other submits are refused until the outcome is stored. A failed
// submission is saved with its error message so the owner can fix the draft
// and retry; the error is also returned.
func (s *PlannerService) Submit(ctx context.Context, owner, id string, sess apiclient.Session) (*PlannerView, error) {
	if id == "" {
		return nil, ErrInvalidDraftID
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	state := draft.State
	// The lock was free, so the request that stored this status is gone.
	if state.Status == tripbuilder.StatusSubmitting {
		s.logger.Warn("resetting abandoned planner submission", zap.String("draft_id", id))
		state.Status = tripbuilder.StatusEditing
	}
	w := tripbuilder.Restore(state)

	payload, err := w.BeginSubmit()
	if errors.Is(err, tripbuilder.ErrAlreadySubmitted) {
		return nil, ErrDraftCompleted
	}
	if err != nil {
		return s.finishSubmit(ctx, owner, draft, w, err)
	}

	draft.State = w.State()
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	sendErr := s.submitter.Send(ctx, sess, w, payload)
	return s.finishSubmit(context.WithoutCancel(ctx), owner, draft, w, sendErr)
}

func (s *PlannerService) finishSubmit(ctx context.Context, owner string, draft *redis.StoredDraft, w *tripbuilder.Wizard, submitErr error) (*PlannerView, error) {
	draft.State = w.State()
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	if submitErr != nil {
		s.logger.Info("planner submission failed",
			zap.String("draft_id", draft.ID),
			zap.String("reason", w.Err()),
			zap.Error(submitErr),
		)
		if s.notifier != nil {
			_ = s.notifier.NotifyTripSubmitFailed(ctx, owner, draft.ID, w.Err())
		}
		return newView(draft), submitErr
	}

	s.logger.Info("planner draft submitted", zap.String("draft_id", draft.ID), zap.String("trip_id", w.TripID()))
	if s.notifier != nil {
		_ = s.notifier.NotifyTripSaved(ctx, owner, draft.ID, w.TripID(), draft.State.Draft.Name)
	}
	return newView(draft), nil
}

// Discard deletes a draft.
func (s *PlannerService) Discard(ctx context.Context, owner, id string) error {
	if _, err := s.load(ctx, owner, id); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	return s.drafts.DeleteDraft(ctx, id)
}

// mutate applies fn to the stored wizard under the draft lock.
func (s *PlannerService) mutate(ctx context.Context, owner, id string, fn func(w *tripbuilder.Wizard) error) (*PlannerView, error) {
	current, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, id)
	if errors.Is(err, ErrDraftBusy) && current.State.Status == tripbuilder.StatusSubmitting {
		return nil, ErrSubmissionInProgress
	}
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Reload under the lock so a submission that finished meanwhile is seen.
	draft, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	switch draft.State.Status {
	case tripbuilder.StatusCompleted:
		return nil, ErrDraftCompleted
	case tripbuilder.StatusSubmitting:
		return nil, ErrSubmissionInProgress
	}

	w := tripbuilder.Restore(draft.State)
	if err := fn(w); err != nil {
		return nil, err
	}

	draft.State = w.State()
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return newView(draft), nil
}

// lock takes the write lock of a draft and returns its release func.
func (s *PlannerService) lock(ctx context.Context, id string) (func(), error) {
	token, ok, err := s.locks.AcquireDraftLock(ctx, id, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire draft lock: %w", err)
	}
	if !ok {
		return nil, ErrDraftBusy
	}
	return func() {
		if err := s.locks.ReleaseDraftLock(context.WithoutCancel(ctx), id, token); err != nil {
			s.logger.Warn("failed to release draft lock", zap.String("draft_id", id), zap.Error(err))
		}
	}, nil
}

func (s *PlannerService) load(ctx context.Context, owner, id string) (*redis.StoredDraft, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	if id == "" {
		return nil, ErrInvalidDraftID
	}

	draft, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft.Owner != owner {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

func (s *PlannerService) save(ctx context.Context, draft *redis.StoredDraft) error {
	draft.UpdatedAt = s.now()
	if err := s.drafts.SaveDraft(ctx, draft, s.draftTTL); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}
