package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/creation-studio/internal/model"
)

var ErrCreationNotFound = errors.New("creation not found")

// LikeToggle 点赞切换后的完整状态
type LikeToggle struct {
	Likes    model.LikeSet
	HasLiked bool
}

// CreationRepository 创作存储：只追加写入，只有 likes 可变
type CreationRepository interface {
	// Create 写入新创作，ID 与时间戳由存储层分配
	Create(ctx context.Context, c *model.Creation) error
	GetByID(ctx context.Context, id string) (*model.Creation, error)
	// ListByUser 某用户的全部创作，created_at 倒序
	ListByUser(ctx context.Context, userID string) ([]*model.Creation, error)
	// ListPublished 已发布的创作，created_at 倒序
	ListPublished(ctx context.Context) ([]*model.Creation, error)
	// ToggleLike 原子地把 userID 加入或移出 likes
	ToggleLike(ctx context.Context, id, userID string) (*LikeToggle, error)
}

type creationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCreationRepository(db *gorm.DB) CreationRepository {
	return &creationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *creationRepository) Create(ctx context.Context, c *model.Creation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Likes == nil {
		c.Likes = model.LikeSet{}
	}
	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *creationRepository) GetByID(ctx context.Context, id string) (*model.Creation, error) {
	var c model.Creation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCreationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *creationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Creation, error) {
	var res []*model.Creation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&res).Error
	return res, err
}

func (r *creationRepository) ListPublished(ctx context.Context) ([]*model.Creation, error) {
	var res []*model.Creation
	err := r.db.WithContext(ctx).
		Where("publish = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&res).Error
	return res, err
}

// toggleLikeSQL flips membership in one statement; the row lock taken by the
// UPDATE serializes concurrent toggles on the same creation.
const toggleLikeSQL = `UPDATE creations SET likes = CASE WHEN ? = ANY(COALESCE(likes, '{}')) ` +
	`THEN array_remove(likes, ?) ELSE array_append(COALESCE(likes, '{}'), ?) END, updated_at = ? ` +
	`WHERE id = ? RETURNING likes`

func (r *creationRepository) ToggleLike(ctx context.Context, id, userID string) (*LikeToggle, error) {
	if r.db.Dialector.Name() == "postgres" {
		return r.toggleLikeNative(ctx, id, userID)
	}
	return r.toggleLikeLocked(ctx, id, userID)
}

type likesRow struct {
	Likes model.LikeSet
}

func (r *creationRepository) toggleLikeNative(ctx context.Context, id, userID string) (*LikeToggle, error) {
	var rows []likesRow
	err := r.db.WithContext(ctx).Raw(toggleLikeSQL, userID, userID, userID, r.now(), id).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrCreationNotFound
	}
	likes := rows[0].Likes
	if likes == nil {
		likes = model.LikeSet{}
	}
	return &LikeToggle{Likes: likes, HasLiked: likes.Contains(userID)}, nil
}

// toggleLikeLocked is used by dialects without array operators. The first
// statement writes the row, so the set mutation runs under its write lock.
func (r *creationRepository) toggleLikeLocked(ctx context.Context, id, userID string) (*LikeToggle, error) {
	var out LikeToggle
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Creation{}).Where("id = ?", id).UpdateColumn("updated_at", r.now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCreationNotFound
		}

		var c model.Creation
		if err := tx.Select("likes").Where("id = ?", id).Take(&c).Error; err != nil {
			return err
		}
		next, liked := c.Likes.Toggle(userID)
		if err := tx.Model(&model.Creation{}).Where("id = ?", id).UpdateColumn("likes", next).Error; err != nil {
			return err
		}
		out = LikeToggle{Likes: next, HasLiked: liked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
