package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientService interface {
	Create(ctx context.Context, actor model.Actor, req dto.ClientRequest) (*dto.ClientResponse, error)
	List(ctx context.Context, archived bool) ([]dto.ClientResponse, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ClientRequest) (*dto.ClientResponse, error)
	ToggleArchive(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.ClientResponse, error)
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

// normalizePhone keeps digits only; a present phone must have 10 or 11.
func normalizePhone(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	var b strings.Builder
	for _, r := range *raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 11 {
		return nil, invalid("phone", "must have 10 or 11 digits including area code")
	}
	return &digits, nil
}

func (s *clientService) apply(ctx context.Context, c *model.Client, req dto.ClientRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != c.ID:
		return fmt.Errorf("client %q: %w", name, ErrDuplicate)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}
	c.Name = name
	c.Address = trimmedOrNil(req.Address)
	c.ContactPerson = trimmedOrNil(req.ContactPerson)
	c.Phone = phone
	return nil
}

func (s *clientService) Create(ctx context.Context, actor model.Actor, req dto.ClientRequest) (*dto.ClientResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	c := &model.Client{ID: uuid.New()}
	if err := s.apply(ctx, c, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := clientToResponse(c)
	return &resp, nil
}

func (s *clientService) List(ctx context.Context, archived bool) ([]dto.ClientResponse, error) {
	list, err := s.repo.List(ctx, archived)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClientResponse, len(list))
	for i := range list {
		resp[i] = clientToResponse(&list[i])
	}
	return resp, nil
}

func (s *clientService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ClientRequest) (*dto.ClientResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "client")
	}
	if err := s.apply(ctx, c, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clientToResponse(c)
	return &resp, nil
}

func (s *clientService) ToggleArchive(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.ClientResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "client")
	}
	c.IsArchived = !c.IsArchived
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clientToResponse(c)
	return &resp, nil
}

func clientToResponse(c *model.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		Address:       c.Address,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		IsArchived:    c.IsArchived,
	}
}
