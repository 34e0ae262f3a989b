package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketbridge/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Database struct {
	DB *gorm.DB
}

// New opens sqlite:// URLs with the SQLite driver and anything else with
// PostgreSQL, then migrates the import history table.
func New(databaseURL string, verbose bool) (*Database, error) {
	var db *gorm.DB
	var err error

	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), cfg)
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.ImportRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ListFilter narrows ListImports. Zero values mean no filter.
type ListFilter struct {
	Status models.ImportStatus
	Brand  string
	ItemID string
	Limit  int
	Offset int
}

// SaveImport inserts a history row.
func (d *Database) SaveImport(ctx context.Context, record *models.ImportRecord) error {
	if err := d.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save import record: %w", err)
	}
	return nil
}

// ListImports returns matching rows newest first together with the total
// count before pagination.
func (d *Database) ListImports(ctx context.Context, f ListFilter) ([]models.ImportRecord, int64, error) {
	q := d.DB.WithContext(ctx).Model(&models.ImportRecord{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count import records: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []models.ImportRecord
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list import records: %w", err)
	}
	return records, total, nil
}

func (d *Database) GetImport(ctx context.Context, id string) (*models.ImportRecord, error) {
	var record models.ImportRecord
	err := d.DB.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import record: %w", err)
	}
	return &record, nil
}

// HasSucceeded reports whether itemID was ever imported successfully.
func (d *Database) HasSucceeded(ctx context.Context, itemID string) (bool, error) {
	var count int64
	err := d.DB.WithContext(ctx).Model(&models.ImportRecord{}).
		Where("item_id = ? AND status = ?", itemID, models.ImportStatusSucceeded).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check import history: %w", err)
	}
	return count > 0, nil
}
