package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"
	"maintrack/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EmailQueue accepts mail jobs for asynchronous delivery. *worker.Dispatcher
// implements it.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

type NotificationService interface {
	// FanOutTx writes one notification per active admin except excludeUserID,
	// plus one for technicianID when it is set, differs from excludeUserID and
	// was not already covered as an admin. Rows are created inside tx.
	FanOutTx(ctx context.Context, tx *gorm.DB, message, url string, excludeUserID uuid.UUID, technicianID *uuid.UUID) ([]model.Notification, error)
	// DirectTx writes one notification to each active user in userIDs, inside
	// tx. Unknown or inactive users are skipped.
	DirectTx(ctx context.Context, tx *gorm.DB, message, url string, userIDs []uuid.UUID) ([]model.Notification, error)
	// Notify is FanOutTx outside any caller transaction.
	Notify(ctx context.Context, message, url string, excludeUserID uuid.UUID, technicianID *uuid.UUID) ([]model.Notification, error)
	// Deliver enqueues an e-mail for every notification whose recipient has an
	// address. Failures are logged, never returned.
	Deliver(ctx context.Context, subject string, notes []model.Notification)

	ListForUser(ctx context.Context, actor model.Actor, limit int) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	mail      EmailQueue
	publicURL string
}

func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, mail EmailQueue, publicURL string) NotificationService {
	return &notificationService{
		repo:      repo,
		users:     users,
		mail:      mail,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *notificationService) recipients(ctx context.Context, tx *gorm.DB, excludeUserID uuid.UUID, technicianID *uuid.UUID) ([]model.User, error) {
	var admins []model.User
	var err error
	if tx != nil {
		admins, err = s.users.ListAdminsTx(tx)
	} else {
		admins, err = s.users.ListAdmins(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(admins)+1)
	out := make([]model.User, 0, len(admins)+1)
	for _, a := range admins {
		if a.ID == excludeUserID || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}

	if technicianID != nil && *technicianID != excludeUserID && !seen[*technicianID] {
		tech, err := s.users.FindByID(ctx, *technicianID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Warn().Str("user_id", technicianID.String()).Msg("notifications: technician not found")
		case err != nil:
			return nil, fmt.Errorf("load technician: %w", err)
		case tech.Active:
			out = append(out, *tech)
		}
	}
	return out, nil
}

func buildNotifications(users []model.User, message, url string) []model.Notification {
	notes := make([]model.Notification, 0, len(users))
	for i := range users {
		u := users[i]
		notes = append(notes, model.Notification{
			UserID:  u.ID,
			Message: message,
			URL:     url,
			User:    &u,
		})
	}
	return notes
}

func (s *notificationService) FanOutTx(ctx context.Context, tx *gorm.DB, message, url string, excludeUserID uuid.UUID, technicianID *uuid.UUID) ([]model.Notification, error) {
	users, err := s.recipients(ctx, tx, excludeUserID, technicianID)
	if err != nil {
		return nil, err
	}
	notes := buildNotifications(users, message, url)
	if err := s.repo.CreateTx(tx, notes); err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	return notes, nil
}

func (s *notificationService) DirectTx(ctx context.Context, tx *gorm.DB, message, url string, userIDs []uuid.UUID) ([]model.Notification, error) {
	users := make([]model.User, 0, len(userIDs))
	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := s.users.FindByID(ctx, id)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			continue
		case err != nil:
			return nil, fmt.Errorf("load user: %w", err)
		case u.Active:
			users = append(users, *u)
		}
	}
	notes := buildNotifications(users, message, url)
	if err := s.repo.CreateTx(tx, notes); err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	return notes, nil
}

func (s *notificationService) Notify(ctx context.Context, message, url string, excludeUserID uuid.UUID, technicianID *uuid.UUID) ([]model.Notification, error) {
	users, err := s.recipients(ctx, nil, excludeUserID, technicianID)
	if err != nil {
		return nil, err
	}
	notes := buildNotifications(users, message, url)
	if err := s.repo.Create(ctx, notes); err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	return notes, nil
}

func (s *notificationService) Deliver(ctx context.Context, subject string, notes []model.Notification) {
	if s.mail == nil {
		return
	}
	for _, n := range notes {
		if n.User == nil || n.User.Email == nil || *n.User.Email == "" {
			continue
		}
		body := n.Message
		if n.URL != "" {
			body += "\n\n" + s.publicURL + n.URL
		}
		payload := worker.EmailJobPayload{ToEmail: *n.User.Email, Subject: subject, Body: body}
		if err := s.mail.EnqueueEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("notifications: enqueue email failed")
		}
	}
}

func (s *notificationService) ListForUser(ctx context.Context, actor model.Actor, limit int) (*dto.NotificationListResponse, error) {
	list, err := s.repo.ListForUser(ctx, actor.ID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	resp := &dto.NotificationListResponse{Unread: unread, Items: make([]dto.NotificationResponse, 0, len(list))}
	for _, n := range list {
		resp.Items = append(resp.Items, dto.NotificationResponse{
			ID:        n.ID.String(),
			Message:   n.Message,
			URL:       n.URL,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// MarkRead reports NotFound for notifications owned by someone else.
func (s *notificationService) MarkRead(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	return nil
}
