package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/axiestudio/embedded-chat/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("chat config not found")
	// ErrDuplicateKey is returned when an insert hits the organization or
	// public slug unique index.
	ErrDuplicateKey = errors.New("chat config already exists")
)

// ChatConfigRepo is the durable store for widget configurations. The unique
// indexes on organization_id and public_slug are the authority on duplicates.
type ChatConfigRepo interface {
	GetByOrganizationID(ctx context.Context, orgID string) (*models.ChatConfig, error)
	GetByPublicSlug(ctx context.Context, slug string) (*models.ChatConfig, error)
	GetByID(ctx context.Context, id uint) (*models.ChatConfig, error)
	List(ctx context.Context) ([]*models.ChatConfig, error)
	Create(ctx context.Context, cfg *models.ChatConfig) error
	UpdateByOrganizationID(ctx context.Context, orgID string, updates map[string]interface{}) (*models.ChatConfig, error)
	DeleteByOrganizationID(ctx context.Context, orgID string) (*models.ChatConfig, error)
}

type chatConfigRepo struct {
	db *gorm.DB
}

func NewChatConfigRepo(db *gorm.DB) ChatConfigRepo {
	return &chatConfigRepo{db: db}
}

func (r *chatConfigRepo) first(ctx context.Context, tx *gorm.DB, query string, arg interface{}) (*models.ChatConfig, error) {
	if tx == nil {
		tx = r.db
	}
	var cfg models.ChatConfig
	err := tx.WithContext(ctx).Where(query, arg).Take(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *chatConfigRepo) GetByOrganizationID(ctx context.Context, orgID string) (*models.ChatConfig, error) {
	return r.first(ctx, nil, "organization_id = ?", orgID)
}

func (r *chatConfigRepo) GetByPublicSlug(ctx context.Context, slug string) (*models.ChatConfig, error) {
	return r.first(ctx, nil, "public_slug = ?", slug)
}

func (r *chatConfigRepo) GetByID(ctx context.Context, id uint) (*models.ChatConfig, error) {
	return r.first(ctx, nil, "id = ?", id)
}

func (r *chatConfigRepo) List(ctx context.Context) ([]*models.ChatConfig, error) {
	var out []*models.ChatConfig
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatConfigRepo) Create(ctx context.Context, cfg *models.ChatConfig) error {
	if cfg == nil {
		return errors.New("chat config is nil")
	}
	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

func (r *chatConfigRepo) UpdateByOrganizationID(ctx context.Context, orgID string, updates map[string]interface{}) (*models.ChatConfig, error) {
	var out *models.ChatConfig
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := make(map[string]interface{}, len(updates)+1)
		for k, v := range updates {
			values[k] = v
		}
		values["updated_at"] = time.Now().UTC()

		res := tx.Model(&models.ChatConfig{}).
			Where("organization_id = ?", orgID).
			Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		cfg, err := r.first(ctx, tx, "organization_id = ?", orgID)
		if err != nil {
			return err
		}
		out = cfg
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return nil, err
	}
	return out, nil
}

func (r *chatConfigRepo) DeleteByOrganizationID(ctx context.Context, orgID string) (*models.ChatConfig, error) {
	var out *models.ChatConfig
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := r.first(ctx, tx, "organization_id = ?", orgID)
		if err != nil {
			return err
		}

		res := tx.Where("id = ?", cfg.ID).Delete(&models.ChatConfig{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		out = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
