package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/d60-Lab/creation-studio/internal/model"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/logger"
	"github.com/d60-Lab/creation-studio/pkg/metrics"
)

const (
	anonymousCreator = "Anonymous User"

	msgLiked   = "Creation Liked"
	msgUnliked = "Creation Unliked"
)

// CreationView 对外返回的创作
type CreationView struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Prompt          string    `json:"prompt"`
	Content         string    `json:"content"`
	Type            string    `json:"type"`
	Publish         bool      `json:"publish"`
	Likes           []string  `json:"likes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	CreatorUsername string    `json:"creator_username"`
	CreatorImage    string    `json:"creator_image"`
}

type LikeResult struct {
	Message    string
	Likes      []string
	HasLiked   bool
	LikesCount int
}

// FeedRetry bounds the retries of idempotent feed reads.
type FeedRetry struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// CreationService 创作的写入、列表与点赞
type CreationService interface {
	Create(ctx context.Context, c *model.Creation) error
	ListMine(ctx context.Context, userID string) ([]CreationView, error)
	ListPublished(ctx context.Context) ([]CreationView, error)
	ToggleLike(ctx context.Context, creationID, userID string) (*LikeResult, error)
}

type creationService struct {
	repo    repository.CreationRepository
	timeout time.Duration
	retry   FeedRetry
}

func NewCreationService(repo repository.CreationRepository, storageTimeout time.Duration, retry FeedRetry) CreationService {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &creationService{repo: repo, timeout: storageTimeout, retry: retry}
}

// Create 只写一次，不重试
func (s *creationService) Create(ctx context.Context, c *model.Creation) error {
	if !c.Type.Valid() {
		return errcode.New(errcode.KindInternal, "Failed to save creation", fmt.Errorf("unknown creation type %q", c.Type))
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(ctx, c); err != nil {
		return errcode.Persistence("Failed to save creation", err)
	}
	metrics.CreationStored(string(c.Type))
	return nil
}

func (s *creationService) ListMine(ctx context.Context, userID string) ([]CreationView, error) {
	rows, err := s.readWithRetry(ctx, func(ctx context.Context) ([]*model.Creation, error) {
		return s.repo.ListByUser(ctx, userID)
	})
	if err != nil {
		logger.L().Error("list user creations", zap.String("user_id", userID), zap.Error(err))
		return nil, errcode.Persistence("Failed to fetch creations", err)
	}
	return toViews(rows), nil
}

func (s *creationService) ListPublished(ctx context.Context) ([]CreationView, error) {
	rows, err := s.readWithRetry(ctx, s.repo.ListPublished)
	if err != nil {
		logger.L().Error("list published creations", zap.Error(err))
		return nil, errcode.Persistence("Failed to fetch published creations", err)
	}
	return toViews(rows), nil
}

// readWithRetry runs read with a per-attempt timeout. Cancellation of the
// caller's context is never retried.
func (s *creationService) readWithRetry(ctx context.Context, read func(context.Context) ([]*model.Creation, error)) ([]*model.Creation, error) {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialBackoff > 0 {
		b.InitialInterval = s.retry.InitialBackoff
	}
	attempt := 0
	return backoff.Retry(ctx, func() ([]*model.Creation, error) {
		attempt++
		actx, cancel := withTimeout(ctx, s.timeout)
		defer cancel()
		rows, err := read(actx)
		if err == nil {
			return rows, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		logger.L().Warn("feed read failed", zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.retry.MaxAttempts)))
}

func (s *creationService) ToggleLike(ctx context.Context, creationID, userID string) (*LikeResult, error) {
	if creationID == "" {
		return nil, errcode.Validation("Creation ID is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.repo.ToggleLike(ctx, creationID, userID)
	switch {
	case errors.Is(err, repository.ErrCreationNotFound):
		return nil, errcode.NotFound("Creation not found")
	case err != nil:
		logger.L().Error("toggle like",
			zap.String("creation_id", creationID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, errcode.Persistence("Failed to toggle like", err)
	}

	metrics.LikeToggled(res.HasLiked)
	msg := msgUnliked
	if res.HasLiked {
		msg = msgLiked
	}
	likes := []string(res.Likes)
	if likes == nil {
		likes = []string{}
	}
	return &LikeResult{Message: msg, Likes: likes, HasLiked: res.HasLiked, LikesCount: len(likes)}, nil
}

func toViews(rows []*model.Creation) []CreationView {
	out := make([]CreationView, 0, len(rows))
	for _, c := range rows {
		out = append(out, toView(c))
	}
	return out
}

func toView(c *model.Creation) CreationView {
	typ := string(c.Type)
	if typ == "" {
		typ = string(model.CreationImage)
	}
	likes := []string(c.Likes)
	if likes == nil {
		likes = []string{}
	}
	return CreationView{
		ID:              c.ID,
		UserID:          c.UserID,
		Prompt:          c.Prompt,
		Content:         c.Content,
		Type:            typ,
		Publish:         c.Publish,
		Likes:           likes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		CreatorUsername: anonymousCreator,
		CreatorImage:    "",
	}
}
