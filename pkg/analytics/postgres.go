package analytics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FunnelHit is one screen entry persisted for reporting.
type FunnelHit struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    int64     `gorm:"not null;index:idx_funnel_hits_chat_screen"`
	Screen    string    `gorm:"size:64;not null;index;index:idx_funnel_hits_chat_screen"`
	CreatedAt time.Time `gorm:"not null"`
}

func (FunnelHit) TableName() string { return "funnel_hits" }

// GormFunnelRepo stores hits in Postgres.
type GormFunnelRepo struct {
	db *gorm.DB
}

var _ FunnelRepository = (*GormFunnelRepo)(nil)

// OpenPostgres connects to dsn with gorm's logger limited to warnings.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// NewGormFunnelRepo migrates the funnel_hits table.
func NewGormFunnelRepo(db *gorm.DB) (*GormFunnelRepo, error) {
	if db == nil {
		return nil, fmt.Errorf("analytics: gorm db is nil")
	}
	if err := db.AutoMigrate(&FunnelHit{}); err != nil {
		return nil, fmt.Errorf("failed to migrate funnel_hits: %w", err)
	}
	return &GormFunnelRepo{db: db}, nil
}

func (r *GormFunnelRepo) Hit(ctx context.Context, screen string, chatID int64) error {
	hit := FunnelHit{ChatID: chatID, Screen: screen, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&hit).Error; err != nil {
		return fmt.Errorf("failed to insert funnel hit: %w", err)
	}
	return nil
}

func (r *GormFunnelRepo) Counts(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Screen string
		Total  int
	}
	err := r.db.WithContext(ctx).
		Model(&FunnelHit{}).
		Select("screen, COUNT(DISTINCT chat_id) AS total").
		Group("screen").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count funnel hits: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Screen] = row.Total
	}
	return out, nil
}

func (r *GormFunnelRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
