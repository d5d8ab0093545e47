package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventdesk/internal/models"
)

// LocalStateRepository is the local durable tier: opaque blobs keyed by namespace.
// Get returns (nil, nil) when nothing is stored under namespace.
type LocalStateRepository interface {
	Get(ctx context.Context, namespace string) ([]byte, error)
	Put(ctx context.Context, namespace string, value []byte) error
	Delete(ctx context.Context, namespace string) error
}

type localStateRepository struct {
	db *gorm.DB
}

func NewLocalStateRepository(db *gorm.DB) LocalStateRepository {
	return &localStateRepository{db: db}
}

func (r *localStateRepository) Get(ctx context.Context, namespace string) ([]byte, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	var entry models.LocalEntry
	if err := r.db.WithContext(ctx).Where("namespace = ?", namespace).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(entry.Value), nil
}

func (r *localStateRepository) Put(ctx context.Context, namespace string, value []byte) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	entry := models.LocalEntry{
		Namespace: namespace,
		Value:     string(value),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "namespace"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      entry.Value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&entry).Error
}

func (r *localStateRepository) Delete(ctx context.Context, namespace string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("namespace = ?", namespace).Delete(&models.LocalEntry{}).Error
}

func validateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("namespace is required")
	}
	return nil
}
