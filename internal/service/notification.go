package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripSaved        NotificationType = "TRIP_SAVED"
	NotificationTripSubmitFailed NotificationType = "TRIP_SUBMIT_FAILED"
	NotificationSessionExpired   NotificationType = "SESSION_EXPIRED"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// Notifier receives planner and session notifications.
type Notifier interface {
	NotifyTripSaved(ctx context.Context, recipientID, draftID, tripID, tripName string) error
	NotifyTripSubmitFailed(ctx context.Context, recipientID, draftID, reason string) error
}

// NotificationService handles notification delivery. Delivery is a
// structured log line plus a counter per type.
type NotificationService struct {
	logger *zap.Logger
	sent   *prometheus.CounterVec
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService. reg may be nil.
func NewNotificationService(logger *zap.Logger, reg prometheus.Registerer) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger, now: time.Now}
	if reg != nil {
		s.sent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sangihetrip",
			Name:      "notifications_total",
			Help:      "Notifications sent, by type",
		}, []string{"type"})
		reg.MustRegister(s.sent)
	}
	return s
}

// NotifyTripSaved tells the traveller that the trip was created.
func (s *NotificationService) NotifyTripSaved(ctx context.Context, recipientID, draftID, tripID, tripName string) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripSaved,
		RecipientID: recipientID,
		Title:       "Trip Saved",
		Message:     fmt.Sprintf("Your trip %q has been saved", tripName),
		Data: map[string]any{
			"draft_id": draftID,
			"trip_id":  tripID,
		},
	})
}

// NotifyTripSubmitFailed tells the traveller why the trip could not be saved.
func (s *NotificationService) NotifyTripSubmitFailed(ctx context.Context, recipientID, draftID, reason string) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripSubmitFailed,
		RecipientID: recipientID,
		Title:       "Trip Not Saved",
		Message:     reason,
		Data: map[string]any{
			"draft_id": draftID,
		},
	})
}

// NotifySessionExpired records that a user's session ended on expiry.
func (s *NotificationService) NotifySessionExpired(ctx context.Context, recipientID string) error {
	if recipientID == "" {
		return nil // No one to notify
	}
	return s.send(ctx, Notification{
		Type:        NotificationSessionExpired,
		RecipientID: recipientID,
		Title:       "Session Expired",
		Message:     "Your session has expired, please sign in again",
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	notification.ID = uuid.NewString()
	notification.CreatedAt = s.now()

	s.logger.Info("notification",
		zap.String("id", notification.ID),
		zap.String("type", string(notification.Type)),
		zap.String("recipient", notification.RecipientID),
		zap.String("title", notification.Title),
		zap.String("message", notification.Message),
		zap.Any("data", notification.Data),
	)
	if s.sent != nil {
		s.sent.WithLabelValues(string(notification.Type)).Inc()
	}
	return nil
}
