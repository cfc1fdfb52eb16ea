package dto

import "github.com/google/uuid"

type TaskRequest struct {
	Title         string      `json:"title"          validate:"required,max=200"`
	Description   *string     `json:"description"    validate:"omitempty,max=5000"`
	TechnicianIDs []uuid.UUID `json:"technician_ids" validate:"required,min=1"`
}

type TaskStatusRequest struct {
	Status      string  `json:"status"      validate:"required"`
	Observation *string `json:"observation" validate:"omitempty,max=2000"`
}

type TaskAssignmentResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	TechnicianName string  `json:"technician_name,omitempty"`
	Status         string  `json:"status"`
	Observation    *string `json:"observation"`
}

type TaskResponse struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Description *string                  `json:"description"`
	CreatorID   string                   `json:"creator_id"`
	CreatorName string                   `json:"creator_name,omitempty"`
	CreatedAt   string                   `json:"created_at"`
	Assignments []TaskAssignmentResponse `json:"assignments"`
}

// MyTaskResponse is one assignment as its technician sees it.
type MyTaskResponse struct {
	AssignmentID string  `json:"assignment_id"`
	TaskID       string  `json:"task_id"`
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	Status       string  `json:"status"`
	Observation  *string `json:"observation"`
	CreatedAt    string  `json:"created_at"`
}
