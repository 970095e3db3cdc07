package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamss11/pychiatrist-backend/internal/domain"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/dbctx"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

// EntryRepo covers the read contracts the analytics engine depends on. All
// list methods preload the entry's Sentiment.
type EntryRepo interface {
	// CreateWithSentiment writes an Entry and its Sentiment. When dbc.Tx is
	// nil the two writes run inside a repo-managed transaction, so callers
	// never observe an Entry without its Sentiment.
	CreateWithSentiment(dbc dbctx.Context, entry *domain.Entry, sentiment *domain.Sentiment) error
	ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*domain.Entry, error)
	ListLatestByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.Entry, error)
	ListAllByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Entry, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type entryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	repoLog := baseLog.With("repo", "EntryRepo")
	return &entryRepo{db: db, log: repoLog}
}

func (er *entryRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return er.db
}

func (er *entryRepo) CreateWithSentiment(dbc dbctx.Context, entry *domain.Entry, sentiment *domain.Sentiment) error {
	write := func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if sentiment.ID == uuid.Nil {
			sentiment.ID = uuid.New()
		}
		sentiment.EntryID = entry.ID
		if sentiment.CreatedAt.IsZero() {
			sentiment.CreatedAt = now
		}
		return tx.Create(sentiment).Error
	}

	if dbc.Tx != nil {
		return write(dbc.Tx.WithContext(dbc.Ctx))
	}
	return er.db.WithContext(dbc.Ctx).Transaction(write)
}

func (er *entryRepo) ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*domain.Entry, error) {
	var results []*domain.Entry
	err := er.conn(dbc).WithContext(dbc.Ctx).
		Preload("Sentiment").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (er *entryRepo) ListLatestByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.Entry, error) {
	var results []*domain.Entry
	q := er.conn(dbc).WithContext(dbc.Ctx).
		Preload("Sentiment").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *entryRepo) ListAllByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Entry, error) {
	return er.ListLatestByUser(dbc, userID, 0)
}

func (er *entryRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := er.conn(dbc).WithContext(dbc.Ctx).
		Model(&domain.Entry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
