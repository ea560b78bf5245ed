// Package storage persists render-job history in SQLite via GORM.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/himanishpuri/img2wav/pkg/img2wav"
)

// DefaultDBFile is used when no path is configured.
const DefaultDBFile = "img2wav.sqlite3"

// renderJob is the GORM row backing img2wav.RenderJob.
type renderJob struct {
	ID          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	ImageWidth  int
	ImageHeight int
	ParamsJSON  string
	OutputPath  string
	Frames      int
	Samples     int
	ElapsedMs   int64
	Status      string `gorm:"index:idx_status"`
	Error       string
}

// SQLiteStore implements img2wav.Store on a local SQLite file.
type SQLiteStore struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath, runs
// migrations and returns the store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&renderJob{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{db: db, sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) SaveJob(job *img2wav.RenderJob) error {
	if job == nil {
		return errors.New("storage: nil job")
	}
	row := fromDomain(job)
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("storage: saving job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListJobs() ([]img2wav.RenderJob, error) {
	var rows []renderJob
	if err := s.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storage: listing jobs: %w", err)
	}

	jobs := make([]img2wav.RenderJob, len(rows))
	for i, row := range rows {
		jobs[i] = toDomain(&row)
	}
	return jobs, nil
}

func (s *SQLiteStore) GetJob(id string) (*img2wav.RenderJob, error) {
	var row renderJob
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("storage: job %s not found", id)
		}
		return nil, fmt.Errorf("storage: getting job %s: %w", id, err)
	}
	job := toDomain(&row)
	return &job, nil
}

func (s *SQLiteStore) DeleteJob(id string) error {
	res := s.db.Delete(&renderJob{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("storage: deleting job %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("storage: job %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.sqlDB.Close()
}

func fromDomain(job *img2wav.RenderJob) renderJob {
	return renderJob{
		ID:          job.ID,
		CreatedAt:   job.CreatedAt,
		ImageWidth:  job.ImageWidth,
		ImageHeight: job.ImageHeight,
		ParamsJSON:  job.ParamsJSON,
		OutputPath:  job.OutputPath,
		Frames:      job.Frames,
		Samples:     job.Samples,
		ElapsedMs:   job.ElapsedMs,
		Status:      job.Status,
		Error:       job.Error,
	}
}

func toDomain(row *renderJob) img2wav.RenderJob {
	return img2wav.RenderJob{
		ID:          row.ID,
		CreatedAt:   row.CreatedAt,
		ImageWidth:  row.ImageWidth,
		ImageHeight: row.ImageHeight,
		ParamsJSON:  row.ParamsJSON,
		OutputPath:  row.OutputPath,
		Frames:      row.Frames,
		Samples:     row.Samples,
		ElapsedMs:   row.ElapsedMs,
		Status:      row.Status,
		Error:       row.Error,
	}
}
