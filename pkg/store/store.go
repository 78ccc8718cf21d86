// Package store persists parse runs and their requirements in SQLite
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/types"
)

// Store provides data access for parse runs
type Store struct {
	db     *gorm.DB
	logger interfaces.Logger
}

// Open opens (creating if needed) the database at path. debug enables SQL
// logging.
func Open(path string, debug bool, log interfaces.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewDatabaseErrorWithCause("failed to create database directory", err)
		}
	}

	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.NewDatabaseErrorWithCause("failed to connect to database", err)
	}

	s := &Store{db: db, logger: log}
	if err := s.migrate(); err != nil {
		return nil, errors.NewDatabaseErrorWithCause("failed to migrate database", err)
	}

	log.Debug("store opened", map[string]interface{}{"path": path})
	return s, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&ParseRun{},
		&RequirementRecord{},
	)
}

// Close releases the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.NewDatabaseErrorWithCause("failed to access database", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.NewDatabaseErrorWithCause("database ping failed", err)
	}
	return nil
}

// NewRun describes a finished parse ready to be saved
func NewRun(source, title string, parsedAt time.Time, duration time.Duration, stats alldata.Stats) *ParseRun {
	data, _ := json.Marshal(stats)
	return &ParseRun{
		Source:     source,
		Title:      title,
		ParsedAt:   parsedAt,
		DurationMS: duration.Milliseconds(),
		Stats:      string(data),
	}
}

// SaveRun stores run and reqs in one transaction. run.ID is assigned when
// empty.
func (s *Store) SaveRun(ctx context.Context, run *ParseRun, reqs []types.Requirement) (*ParseRun, error) {
	run.RequirementCount = len(reqs)
	run.Requirements = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(reqs) == 0 {
			return nil
		}

		records := make([]RequirementRecord, 0, len(reqs))
		for i, req := range reqs {
			record, err := newRecord(run.ID, i, req)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return tx.CreateInBatches(records, 100).Error
	})
	if err != nil {
		return nil, errors.NewDatabaseErrorWithCause("failed to save parse run", err)
	}

	s.logger.Info("parse run saved", map[string]interface{}{
		"run_id":       run.ID,
		"source":       run.Source,
		"requirements": run.RequirementCount,
	})
	return run, nil
}

// GetRun retrieves a run by ID, with its requirement records in document
// order when withRequirements is set
func (s *Store) GetRun(ctx context.Context, id string, withRequirements bool) (*ParseRun, error) {
	query := s.db.WithContext(ctx)
	if withRequirements {
		query = query.Preload("Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	}

	var run ParseRun
	if err := query.Where("id = ?", id).First(&run).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("parse run " + id)
		}
		return nil, errors.NewDatabaseErrorWithCause("failed to get parse run", err)
	}
	return &run, nil
}

// ListRuns returns runs newest first with pagination, and the total count
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]ParseRun, int64, error) {
	var runs []ParseRun
	var total int64

	db := s.db.WithContext(ctx)
	if err := db.Model(&ParseRun{}).Count(&total).Error; err != nil {
		return nil, 0, errors.NewDatabaseErrorWithCause("failed to count parse runs", err)
	}

	if limit <= 0 {
		limit = 50
	}
	if err := db.Order("parsed_at DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
		return nil, 0, errors.NewDatabaseErrorWithCause("failed to list parse runs", err)
	}

	return runs, total, nil
}

// FindRequirement returns every stored version of item, newest run first
func (s *Store) FindRequirement(ctx context.Context, item string) ([]StoredRequirement, error) {
	type row struct {
		RequirementRecord
		Source   string
		ParsedAt time.Time
	}

	var rows []row
	err := s.db.WithContext(ctx).
		Table("requirement_records").
		Select("requirement_records.*, parse_runs.source AS source, parse_runs.parsed_at AS parsed_at").
		Joins("JOIN parse_runs ON parse_runs.id = requirement_records.run_id").
		Where("requirement_records.item = ?", item).
		Order("parse_runs.parsed_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.NewDatabaseErrorWithCause("failed to find requirement", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("requirement " + item)
	}

	found := make([]StoredRequirement, 0, len(rows))
	for i := range rows {
		req, err := rows[i].Requirement()
		if err != nil {
			return nil, errors.NewDatabaseErrorWithCause("failed to decode requirement", err)
		}
		found = append(found, StoredRequirement{
			RunID:       rows[i].RunID,
			Source:      rows[i].Source,
			ParsedAt:    rows[i].ParsedAt,
			Requirement: req,
		})
	}
	return found, nil
}

// DeleteRun removes a run and its requirements
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&RequirementRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&ParseRun{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NewNotFoundError("parse run " + id)
	}
	if err != nil {
		return errors.NewDatabaseErrorWithCause("failed to delete parse run", err)
	}
	return nil
}
