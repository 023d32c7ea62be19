package repository

import (
	"context"

	"tillpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, name string) ([]model.Client, error)
	Create(ctx context.Context, cl *model.Client) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var cl model.Client
	err := r.db.WithContext(ctx).Where("active = true").First(&cl, id).Error
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *clientRepo) List(ctx context.Context, name string) ([]model.Client, error) {
	var clients []model.Client
	q := r.db.WithContext(ctx).Where("active = true")
	if name != "" {
		q = q.Where("name ILIKE ?", "%"+name+"%")
	}
	err := q.Order("name ASC").Limit(100).Find(&clients).Error
	return clients, err
}

func (r *clientRepo) Create(ctx context.Context, cl *model.Client) error {
	return r.db.WithContext(ctx).Create(cl).Error
}
