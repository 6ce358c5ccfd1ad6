package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps documents in a single table, one row per document, with an
// integer version column guarding conditional writes.
type SQLStore struct {
	db *gorm.DB
}

type documentRow struct {
	Collection string    `gorm:"column:collection;primaryKey;size:64"`
	DocID      string    `gorm:"column:doc_id;primaryKey;size:128"`
	Data       string    `gorm:"column:data;type:text"`
	Version    int64     `gorm:"column:version"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (documentRow) TableName() string { return "documents" }

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate documents table: %v", ErrUnavailable, err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) ([]byte, int64, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return nil, 0, storeErr("get", collection, id, err)
	}
	return []byte(row.Data), row.Version, nil
}

func (s *SQLStore) Set(ctx context.Context, collection, id string, data []byte) error {
	row := documentRow{
		Collection: collection,
		DocID:      id,
		Data:       string(data),
		Version:    1,
		UpdatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"data":       string(data),
				"version":    gorm.Expr("documents.version + 1"),
				"updated_at": row.UpdatedAt,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return storeErr("set", collection, id, err)
	}
	return nil
}

func (s *SQLStore) SetIf(ctx context.Context, collection, id string, data []byte, expectedVersion int64) error {
	now := time.Now().UTC()

	if expectedVersion == 0 {
		row := documentRow{
			Collection: collection,
			DocID:      id,
			Data:       string(data),
			Version:    1,
			UpdatedAt:  now,
		}
		err := s.db.WithContext(ctx).Create(&row).Error
		if err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: %s/%s already exists", ErrConflict, collection, id)
			}
			return storeErr("setif", collection, id, err)
		}
		return nil
	}

	res := s.db.WithContext(ctx).Model(&documentRow{}).
		Where("collection = ? AND doc_id = ? AND version = ?", collection, id, expectedVersion).
		Updates(map[string]interface{}{
			"data":       string(data),
			"version":    expectedVersion + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return storeErr("setif", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s expected version %d", ErrConflict, collection, id, expectedVersion)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return storeErr("delete", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *SQLStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&documentRow{}).
		Where("collection = ?", collection).
		Order("doc_id").
		Pluck("doc_id", &ids).Error
	if err != nil {
		return nil, storeErr("list", collection, "", err)
	}
	return ids, nil
}

func (s *SQLStore) Reconnect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isDuplicateKey recognizes unique-constraint violations across the two
// supported backends (postgres error 23505, sqlite via gorm's translation).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func storeErr(op, collection, id string, err error) error {
	log.Error().Err(err).Str("op", op).Str("collection", collection).Str("doc_id", id).
		Msg("document store operation failed")
	return fmt.Errorf("%w: %s %s/%s: %v", ErrUnavailable, op, collection, id, err)
}
