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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	technicianTasksURL = "/tasks/mine"
	adminTasksURL      = "/tasks"
)

type TaskService interface {
	Create(ctx context.Context, actor model.Actor, req dto.TaskRequest) (*dto.TaskResponse, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.TaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.TaskResponse, error)
	List(ctx context.Context, actor model.Actor) ([]dto.TaskResponse, error)
	// Mine lists the actor's own assignments, newest task first.
	Mine(ctx context.Context, actor model.Actor) ([]dto.MyTaskResponse, error)
	UpdateStatus(ctx context.Context, actor model.Actor, assignmentID uuid.UUID, req dto.TaskStatusRequest) (*dto.MyTaskResponse, error)
}

type taskService struct {
	repo     repository.TaskRepository
	users    repository.UserRepository
	notifier NotificationService
}

func NewTaskService(repo repository.TaskRepository, users repository.UserRepository, notifier NotificationService) TaskService {
	return &taskService{repo: repo, users: users, notifier: notifier}
}

type taskFields struct {
	title       string
	description *string
	technicians []uuid.UUID
}

// parseTask trims the text fields and checks every assignee is an active
// technician. Repeated ids collapse to one assignment.
func (s *taskService) parseTask(ctx context.Context, req dto.TaskRequest) (taskFields, error) {
	f := taskFields{
		title:       strings.TrimSpace(req.Title),
		description: trimmedOrNil(req.Description),
	}
	if f.title == "" {
		return f, invalid("title", "is required")
	}
	seen := make(map[uuid.UUID]bool, len(req.TechnicianIDs))
	for i, id := range req.TechnicianIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := s.users.FindByID(ctx, id)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return f, invalid(fmt.Sprintf("technician_ids[%d]", i), "must be an active technician")
		case err != nil:
			return f, err
		case !u.Active || u.Role != model.RoleTechnician:
			return f, invalid(fmt.Sprintf("technician_ids[%d]", i), "must be an active technician")
		}
		f.technicians = append(f.technicians, id)
	}
	if len(f.technicians) == 0 {
		return f, invalid("technician_ids", "at least one technician is required")
	}
	return f, nil
}

func (s *taskService) actorName(ctx context.Context, actor model.Actor) string {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return "an administrator"
	}
	return u.Name
}

func (s *taskService) Create(ctx context.Context, actor model.Actor, req dto.TaskRequest) (*dto.TaskResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	f, err := s.parseTask(ctx, req)
	if err != nil {
		return nil, err
	}

	task := &model.Task{ID: uuid.New(), Title: f.title, Description: f.description, CreatorID: actor.ID}
	var notes []model.Notification
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if err := s.repo.AddAssignmentsTx(tx, newAssignments(task.ID, f.technicians)); err != nil {
			return fmt.Errorf("create assignments: %w", err)
		}
		msg := fmt.Sprintf("A new task '%s' was assigned to you.", task.Title)
		var err error
		notes, err = s.notifier.DirectTx(ctx, tx, msg, technicianTasksURL, f.technicians)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Deliver(ctx, "New task", notes)

	log.Info().Str("task_id", task.ID.String()).Int("assignees", len(f.technicians)).Msg("task created")
	return s.Get(ctx, actor, task.ID)
}

func newAssignments(taskID uuid.UUID, users []uuid.UUID) []model.TaskAssignment {
	list := make([]model.TaskAssignment, 0, len(users))
	for _, u := range users {
		list = append(list, model.TaskAssignment{ID: uuid.New(), TaskID: taskID, UserID: u, Status: model.TaskNotStarted})
	}
	return list
}

// Update replaces title, description and the assignee set. Assignees who stay
// keep their status and observation.
func (s *taskService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.TaskRequest) (*dto.TaskResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "task")
	}
	f, err := s.parseTask(ctx, req)
	if err != nil {
		return nil, err
	}

	current := make(map[uuid.UUID]bool, len(task.Assignments))
	for _, a := range task.Assignments {
		current[a.UserID] = true
	}
	wanted := make(map[uuid.UUID]bool, len(f.technicians))
	var added []uuid.UUID
	for _, u := range f.technicians {
		wanted[u] = true
		if !current[u] {
			added = append(added, u)
		}
	}
	var removed []uuid.UUID
	for _, a := range task.Assignments {
		if !wanted[a.UserID] {
			removed = append(removed, a.UserID)
		}
	}

	task.Title = f.title
	task.Description = f.description
	who := s.actorName(ctx, actor)
	var notes []model.Notification
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := s.repo.RemoveAssignmentsTx(tx, task.ID, removed); err != nil {
			return fmt.Errorf("remove assignments: %w", err)
		}
		if err := s.repo.AddAssignmentsTx(tx, newAssignments(task.ID, added)); err != nil {
			return fmt.Errorf("add assignments: %w", err)
		}
		adminNotes, err := s.notifier.FanOutTx(ctx, tx,
			fmt.Sprintf("Task '%s' was updated by %s.", task.Title, who), adminTasksURL, actor.ID, nil)
		if err != nil {
			return err
		}
		techNotes, err := s.notifier.DirectTx(ctx, tx,
			fmt.Sprintf("The task '%s' assigned to you was updated.", task.Title), technicianTasksURL, f.technicians)
		if err != nil {
			return err
		}
		notes = append(adminNotes, techNotes...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Deliver(ctx, "Task updated", notes)
	return s.Get(ctx, actor, task.ID)
}

func (s *taskService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "task")
	}
	assignees := make([]uuid.UUID, 0, len(task.Assignments))
	for _, a := range task.Assignments {
		assignees = append(assignees, a.UserID)
	}

	who := s.actorName(ctx, actor)
	var notes []model.Notification
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		adminNotes, err := s.notifier.FanOutTx(ctx, tx,
			fmt.Sprintf("Task '%s' was deleted by %s.", task.Title, who), adminTasksURL, actor.ID, nil)
		if err != nil {
			return err
		}
		techNotes, err := s.notifier.DirectTx(ctx, tx,
			fmt.Sprintf("The task '%s' assigned to you was deleted.", task.Title), technicianTasksURL, assignees)
		if err != nil {
			return err
		}
		notes = append(adminNotes, techNotes...)
		return notFound(s.repo.DeleteTx(tx, task.ID), "task")
	})
	if err != nil {
		return err
	}
	s.notifier.Deliver(ctx, "Task deleted", notes)
	log.Info().Str("task_id", task.ID.String()).Msg("task deleted")
	return nil
}

// Get is open to admins and to the task's assignees.
func (s *taskService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.TaskResponse, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "task")
	}
	if !actor.IsAdmin() && !assignedTo(task, actor.ID) {
		return nil, ErrForbidden
	}
	resp := taskToResponse(task)
	return &resp, nil
}

func assignedTo(task *model.Task, userID uuid.UUID) bool {
	for _, a := range task.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

func (s *taskService) List(ctx context.Context, actor model.Actor) ([]dto.TaskResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TaskResponse, len(list))
	for i := range list {
		resp[i] = taskToResponse(&list[i])
	}
	return resp, nil
}

func (s *taskService) Mine(ctx context.Context, actor model.Actor) ([]dto.MyTaskResponse, error) {
	list, err := s.repo.ListAssignmentsForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MyTaskResponse, len(list))
	for i := range list {
		resp[i] = myTaskToResponse(&list[i])
	}
	return resp, nil
}

// UpdateStatus lets the assignee (or an admin) move an assignment along.
// Admins other than the actor hear about it.
func (s *taskService) UpdateStatus(ctx context.Context, actor model.Actor, assignmentID uuid.UUID, req dto.TaskStatusRequest) (*dto.MyTaskResponse, error) {
	a, err := s.repo.FindAssignment(ctx, assignmentID)
	if err != nil {
		return nil, notFound(err, "task assignment")
	}
	if a.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	status := model.TaskStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return nil, invalid("status", "must be one of Not started, In progress, Completed")
	}
	a.Status = status
	a.Observation = trimmedOrNil(req.Observation)
	if err := s.repo.UpdateAssignment(ctx, a); err != nil {
		return nil, err
	}

	title := ""
	if a.Task != nil {
		title = a.Task.Title
	}
	msg := fmt.Sprintf("%s set task '%s' to '%s'.", s.actorName(ctx, actor), title, status)
	notes, err := s.notifier.Notify(ctx, msg, adminTasksURL, actor.ID, nil)
	if err != nil {
		// status change is already committed
		log.Warn().Err(err).Str("assignment_id", a.ID.String()).Msg("task status notification failed")
	} else {
		s.notifier.Deliver(ctx, "Task status changed", notes)
	}
	resp := myTaskToResponse(a)
	return &resp, nil
}

func taskToResponse(t *model.Task) dto.TaskResponse {
	resp := dto.TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		CreatorID:   t.CreatorID.String(),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		Assignments: make([]dto.TaskAssignmentResponse, 0, len(t.Assignments)),
	}
	if t.Creator != nil {
		resp.CreatorName = t.Creator.Name
	}
	for _, a := range t.Assignments {
		row := dto.TaskAssignmentResponse{
			ID:          a.ID.String(),
			UserID:      a.UserID.String(),
			Status:      string(a.Status),
			Observation: a.Observation,
		}
		if a.User != nil {
			row.TechnicianName = a.User.Name
		}
		resp.Assignments = append(resp.Assignments, row)
	}
	return resp
}

func myTaskToResponse(a *model.TaskAssignment) dto.MyTaskResponse {
	resp := dto.MyTaskResponse{
		AssignmentID: a.ID.String(),
		TaskID:       a.TaskID.String(),
		Status:       string(a.Status),
		Observation:  a.Observation,
	}
	if a.Task != nil {
		resp.Title = a.Task.Title
		resp.Description = a.Task.Description
		resp.CreatedAt = a.Task.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
