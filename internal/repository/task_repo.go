package repository

import (
	"context"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository interface {
	CreateTx(tx *gorm.DB, t *model.Task) error
	UpdateTx(tx *gorm.DB, t *model.Task) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	AddAssignmentsTx(tx *gorm.DB, list []model.TaskAssignment) error
	RemoveAssignmentsTx(tx *gorm.DB, taskID uuid.UUID, userIDs []uuid.UUID) error

	// FindByID loads the task with its creator and assignees.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)

	// FindAssignment loads one assignment with its task.
	FindAssignment(ctx context.Context, id uuid.UUID) (*model.TaskAssignment, error)
	ListAssignmentsForUser(ctx context.Context, userID uuid.UUID) ([]model.TaskAssignment, error)
	UpdateAssignment(ctx context.Context, a *model.TaskAssignment) error

	DB() *gorm.DB
}

type taskRepo struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) TaskRepository { return &taskRepo{db: db} }

func (r *taskRepo) DB() *gorm.DB { return r.db }

func (r *taskRepo) CreateTx(tx *gorm.DB, t *model.Task) error {
	return tx.Omit(clause.Associations).Create(t).Error
}

func (r *taskRepo) UpdateTx(tx *gorm.DB, t *model.Task) error {
	return tx.Model(&model.Task{}).Where("id = ?", t.ID).
		Updates(map[string]interface{}{"title": t.Title, "description": t.Description, "updated_at": gorm.Expr("NOW()")}).Error
}

func (r *taskRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Delete(&model.Task{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepo) AddAssignmentsTx(tx *gorm.DB, list []model.TaskAssignment) error {
	if len(list) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&list).Error
}

func (r *taskRepo) RemoveAssignmentsTx(tx *gorm.DB, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return tx.Where("task_id = ? AND user_id IN ?", taskID, userIDs).Delete(&model.TaskAssignment{}).Error
}

func (r *taskRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var t model.Task
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignments.User").
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *taskRepo) List(ctx context.Context) ([]model.Task, error) {
	var list []model.Task
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignments.User").
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *taskRepo) FindAssignment(ctx context.Context, id uuid.UUID) (*model.TaskAssignment, error) {
	var a model.TaskAssignment
	err := r.db.WithContext(ctx).Preload("Task").First(&a, "id = ?", id).Error
	return &a, err
}

func (r *taskRepo) ListAssignmentsForUser(ctx context.Context, userID uuid.UUID) ([]model.TaskAssignment, error) {
	var list []model.TaskAssignment
	err := r.db.WithContext(ctx).
		Joins("Task").
		Where("task_assignment.user_id = ?", userID).
		Order(`"Task"."created_at" DESC`).
		Find(&list).Error
	return list, err
}

func (r *taskRepo) UpdateAssignment(ctx context.Context, a *model.TaskAssignment) error {
	return r.db.WithContext(ctx).Model(&model.TaskAssignment{}).Where("id = ?", a.ID).
		Updates(map[string]interface{}{"status": a.Status, "observation": a.Observation, "updated_at": gorm.Expr("NOW()")}).Error
}
