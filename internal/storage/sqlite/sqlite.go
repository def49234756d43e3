// Package sqlite stores links in a SQLite database through gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// linkRow is the gorm mapping of the links table.
type linkRow struct {
	Link     string  `gorm:"primaryKey;size:80;not null"`
	Target   string  `gorm:"not null"`
	Password *string `gorm:"size:80"`
}

func (linkRow) TableName() string {
	return "links"
}

type Storage struct {
	db *gorm.DB
}

// NewStorage opens the database at path and migrates the links table.
// Use ":memory:" for a throwaway database.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql database: %w", err)
	}
	// SQLite allows a single writer; ":memory:" databases are per connection.
	sqlDB.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates or updates the links table.
func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&linkRow{}); err != nil {
		return fmt.Errorf("failed to migrate links table: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, link string) (model.Link, error) {
	var row linkRow
	err := s.db.WithContext(ctx).Where("link = ?", link).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Link{}, storage.ErrLinkNotFound
		}
		return model.Link{}, fmt.Errorf("error querying link: %w", err)
	}

	l := model.Link{Link: row.Link, Target: row.Target}
	if row.Password != nil {
		l.Password = *row.Password
	}
	return l, nil
}

func (s *Storage) Exists(ctx context.Context, link string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&linkRow{}).Where("link = ?", link).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking if link exists: %w", err)
	}
	return count > 0, nil
}

func (s *Storage) Create(ctx context.Context, l model.Link) error {
	password := l.Password
	row := linkRow{Link: l.Link, Target: l.Target, Password: &password}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return storage.ErrLinkExists
		}
		return fmt.Errorf("error inserting link: %w", err)
	}
	return nil
}

func (s *Storage) Rename(ctx context.Context, link, newLink string) error {
	res := s.db.WithContext(ctx).Model(&linkRow{}).Where("link = ?", link).Update("link", newLink)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return storage.ErrLinkExists
		}
		return fmt.Errorf("error renaming link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

func (s *Storage) UpdateTarget(ctx context.Context, link, target string) error {
	res := s.db.WithContext(ctx).Model(&linkRow{}).Where("link = ?", link).Update("target", target)
	if res.Error != nil {
		return fmt.Errorf("error updating target: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, link string) error {
	res := s.db.WithContext(ctx).Where("link = ?", link).Delete(&linkRow{})
	if res.Error != nil {
		return fmt.Errorf("error deleting link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// the pure-Go driver is not always covered by gorm's error translator
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
