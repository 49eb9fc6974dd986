package database

import (
	"context"
	"fmt"
	"time"

	"facility-planner/internal/config"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB stores the working copy in MySQL or SQLite through GORM
type GormDB struct {
	db *gorm.DB
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewGormDB connects to MySQL
func NewGormDB(cfg config.MySQLConfig) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), gormConfig(logger.Warn))
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewSQLiteDB opens a SQLite file, or an in-memory database for ":memory:"
func NewSQLiteDB(path string) (*GormDB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(logger.Warn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	return &GormDB{db: db}, nil
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Element{},
		&models.Space{},
		&models.TaskGroup{},
		&models.DeleteLog{},
	)
}

// LoadAll reads every element, space and task group
func (gdb *GormDB) LoadAll(ctx context.Context) (*registry.Snapshot, error) {
	snap := &registry.Snapshot{}
	db := gdb.db.WithContext(ctx)
	if err := db.Order("created_at ASC").Find(&snap.Elements).Error; err != nil {
		return nil, fmt.Errorf("failed to load elements: %w", err)
	}
	if err := db.Order("created_at ASC").Find(&snap.Spaces).Error; err != nil {
		return nil, fmt.Errorf("failed to load spaces: %w", err)
	}
	if err := db.Order("group_date ASC").Find(&snap.Groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load task groups: %w", err)
	}
	return snap, nil
}

// SaveAll replaces the stored collections with snap in one transaction
func (gdb *GormDB) SaveAll(ctx context.Context, snap *registry.Snapshot) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceAll(tx, &models.Element{}, snap.Elements, func(e models.Element) string { return e.ID }); err != nil {
			return fmt.Errorf("failed to save elements: %w", err)
		}
		if err := replaceAll(tx, &models.Space{}, snap.Spaces, func(s models.Space) string { return s.ID }); err != nil {
			return fmt.Errorf("failed to save spaces: %w", err)
		}
		if err := replaceAll(tx, &models.TaskGroup{}, snap.Groups, func(g models.TaskGroup) string { return g.ID }); err != nil {
			return fmt.Errorf("failed to save task groups: %w", err)
		}
		return nil
	})
}

// replaceAll deletes rows whose id is not in rows and upserts the rest
func replaceAll[T any](tx *gorm.DB, model *T, rows []T, id func(T) string) error {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = id(r)
	}

	del := tx.Where("1 = 1")
	if len(ids) > 0 {
		del = tx.Where("id NOT IN ?", ids)
	}
	if err := del.Delete(model).Error; err != nil {
		return err
	}

	if len(rows) == 0 {
		return nil
	}
	return tx.Save(&rows).Error
}

// CreateDeleteLogs records physically deleted elements
func (gdb *GormDB) CreateDeleteLogs(ctx context.Context, logs []models.DeleteLog) error {
	if len(logs) == 0 {
		return nil
	}
	return gdb.db.WithContext(ctx).Create(&logs).Error
}

// RecentDeleteLogs returns the newest delete log entries
func (gdb *GormDB) RecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := gdb.db.WithContext(ctx).Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// DeleteStats aggregates the delete log
func (gdb *GormDB) DeleteStats(ctx context.Context, since time.Time) (*DeleteStats, error) {
	db := gdb.db.WithContext(ctx)
	stats := &DeleteStats{ByReason: make(map[string]int64)}

	if err := db.Model(&models.DeleteLog{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := db.Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}
	for _, rc := range reasonCounts {
		stats.ByReason[rc.Reason] = rc.Count
	}

	if err := db.Model(&models.DeleteLog{}).
		Where("deleted_at >= ?", since).
		Count(&stats.Recent).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
