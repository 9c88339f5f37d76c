package db

import (
	"errors"
	"fmt"

	"sentra/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("db unavailable")

type Store struct {
	DB *gorm.DB

	Vendors *VendorRepository
	Events  *EventRepository
	Alerts  *AlertRepository
}

// NewStore connects to postgres when a DSN is configured. Without one the
// store runs in no-db mode and callers fall back to in-memory repositories.
func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		return &Store{}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStoreWithDB(gdb), nil
}

func newStoreWithDB(gdb *gorm.DB) *Store {
	return &Store{
		DB:      gdb,
		Vendors: NewVendorRepository(gdb),
		Events:  NewEventRepository(gdb),
		Alerts:  NewAlertRepository(gdb),
	}
}

func (s *Store) Available() bool {
	return s != nil && s.DB != nil
}

// AutoMigrate creates the gateway tables. Ran at startup; a failed migration
// is fatal.
func (s *Store) AutoMigrate() error {
	if !s.Available() {
		return nil
	}
	return s.DB.AutoMigrate(&VendorModel{}, &TelemetryEventModel{}, &AlertModel{})
}
