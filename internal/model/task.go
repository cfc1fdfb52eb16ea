package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "Not started"
	TaskInProgress TaskStatus = "In progress"
	TaskCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// Task is a piece of work an admin hands to one or more technicians.
type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description *string   `gorm:"type:text"`
	CreatorID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	Creator     *User            `gorm:"foreignKey:CreatorID"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

func (Task) TableName() string { return "task" }

// TaskAssignment carries the per-technician progress of a task.
type TaskAssignment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_task_assignment_user"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_task_assignment_user;index"`
	Status      TaskStatus `gorm:"type:varchar(50);not null;default:'Not started'"`
	Observation *string    `gorm:"type:text"`
	UpdatedAt   time.Time

	Task *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (TaskAssignment) TableName() string { return "task_assignment" }
