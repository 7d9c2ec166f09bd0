package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/creation-studio/internal/model"
)

var ErrFreeLimitReached = errors.New("free usage limit reached")

// UsageLedger 免费额度账本。所有写操作在存储端原子完成
type UsageLedger interface {
	// Get returns the stored counter; found is false when the user has none yet.
	Get(ctx context.Context, userID string) (usage int, found bool, err error)
	// Init creates the counter at 0 if absent and returns the current value.
	Init(ctx context.Context, userID string) (int, error)
	// Reserve increments the counter iff it is below limit and returns the new value.
	Reserve(ctx context.Context, userID string, limit int) (int, error)
	// Release undoes one Reserve; the counter never drops below 0.
	Release(ctx context.Context, userID string) error
}

type dbUsageLedger struct{ db *gorm.DB }

func NewDBUsageLedger(db *gorm.DB) UsageLedger { return &dbUsageLedger{db: db} }

func (l *dbUsageLedger) Get(ctx context.Context, userID string) (int, bool, error) {
	var row model.UsageLedger
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.FreeUsage, true, nil
}

func (l *dbUsageLedger) Init(ctx context.Context, userID string) (int, error) {
	if err := l.insertIfAbsent(ctx, userID); err != nil {
		return 0, err
	}
	usage, _, err := l.Get(ctx, userID)
	return usage, err
}

func (l *dbUsageLedger) insertIfAbsent(ctx context.Context, userID string) error {
	row := &model.UsageLedger{UserID: userID, FreeUsage: 0}
	// 幂等：并发初始化只会成功一次
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (l *dbUsageLedger) Reserve(ctx context.Context, userID string, limit int) (int, error) {
	if err := l.insertIfAbsent(ctx, userID); err != nil {
		return 0, err
	}
	res := l.db.WithContext(ctx).
		Model(&model.UsageLedger{}).
		Where("user_id = ? AND free_usage < ?", userID, limit).
		Updates(map[string]any{
			"free_usage": gorm.Expr("free_usage + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrFreeLimitReached
	}
	usage, _, err := l.Get(ctx, userID)
	return usage, err
}

func (l *dbUsageLedger) Release(ctx context.Context, userID string) error {
	return l.db.WithContext(ctx).
		Model(&model.UsageLedger{}).
		Where("user_id = ? AND free_usage > 0", userID).
		Updates(map[string]any{
			"free_usage": gorm.Expr("free_usage - 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}
