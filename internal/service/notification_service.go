package service

import (
	"context"
	"encoding/json"
	"fmt"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type NotificationService interface {
	Notify(ctx context.Context, recipientID uuid.UUID, title, message, ntype, link string)
	ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  *websocket.Hub
	log  zerolog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, hub *websocket.Hub, log zerolog.Logger) NotificationService {
	return &notificationService{repo: repo, hub: hub, log: log}
}

// Notify persists the message and mirrors it to the recipient's open
// websocket connections. Delivery is best-effort: a failure is logged, never
// surfaced, so a notification problem cannot roll back a workflow transition.
func (s *notificationService) Notify(ctx context.Context, recipientID uuid.UUID, title, message, ntype, link string) {
	n := model.Notification{
		RecipientID: &recipientID,
		Title:       title,
		Message:     message,
		Type:        ntype,
		Link:        link,
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		s.log.Warn().Err(err).Str("recipient", recipientID.String()).Msg("failed to persist notification")
		return
	}
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event": "notification",
		"data":  n,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to encode notification payload")
		return
	}
	s.hub.SendToUser(recipientID, payload)
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int64, error) {
	return s.repo.ListForUser(ctx, userID, page, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
