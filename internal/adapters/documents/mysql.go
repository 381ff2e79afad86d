package documents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

type userRow struct {
	Email                 string `gorm:"primaryKey;size:255"`
	Institute             string `gorm:"size:255"`
	InstituteAbbreviation string `gorm:"size:64"`
	Faculty               string `gorm:"size:255"`
	Address               string `gorm:"size:42"`
	UpdatedAt             time.Time
}

func (userRow) TableName() string { return "users" }

type instituteRow struct {
	Abbreviation string   `gorm:"primaryKey;size:64"`
	Name         string   `gorm:"size:255"`
	Faculties    []string `gorm:"serializer:json"`
	UpdatedAt    time.Time
}

func (instituteRow) TableName() string { return "institutes" }

// MySQLStore keeps documents in two tables
type MySQLStore struct {
	db  *gorm.DB
	log *slog.Logger
}

var _ Backend = (*MySQLStore)(nil)

// NewMySQLStore opens cfg.Documents.MySQLDSN and migrates the tables
func NewMySQLStore(cfg *config.RuntimeConfig, slogger *slog.Logger) (*MySQLStore, func(), error) {
	dsn := ensureParam(cfg.Documents.MySQLDSN, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
	}

	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	if err := db.AutoMigrate(&userRow{}, &instituteRow{}); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate documents: %w", err)
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return &MySQLStore{db: db, log: slogger.With("component", "MySQLDocuments")}, cleanup, nil
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}

func (s *MySQLStore) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", email, err)
	}
	return &models.Account{
		Email:                 row.Email,
		Institute:             row.Institute,
		InstituteAbbreviation: row.InstituteAbbreviation,
		Faculty:               row.Faculty,
		Address:               row.Address,
	}, nil
}

func (s *MySQLStore) SaveAccount(ctx context.Context, account *models.Account) error {
	row := userRow{
		Email:                 account.Email,
		Institute:             account.Institute,
		InstituteAbbreviation: account.InstituteAbbreviation,
		Faculty:               account.Faculty,
		Address:               account.Address,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to write user %s: %w", account.Email, err)
	}
	return nil
}

func (s *MySQLStore) ListInstitutes(ctx context.Context) (map[string]string, error) {
	var rows []instituteRow
	if err := s.db.WithContext(ctx).Select("abbreviation", "name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list institutes: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Abbreviation] = row.Name
	}
	return out, nil
}

func (s *MySQLStore) GetFaculties(ctx context.Context, abbreviation string) ([]string, error) {
	var row instituteRow
	err := s.db.WithContext(ctx).First(&row, "abbreviation = ?", abbreviation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("institute %s: %w", abbreviation, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read institute %s: %w", abbreviation, err)
	}
	if row.Faculties == nil {
		return []string{}, nil
	}
	return row.Faculties, nil
}

func (s *MySQLStore) SaveInstitute(ctx context.Context, institute *models.Institute) error {
	row := instituteRow{
		Abbreviation: institute.Abbreviation,
		Name:         institute.Name,
		Faculties:    institute.Faculties,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to write institute %s: %w", institute.Abbreviation, err)
	}
	return nil
}
