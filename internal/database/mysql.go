package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"property-listing/internal/models"
)

// GormDB is a PropertyStore backed by a gorm-managed SQL database
type GormDB struct {
	db *gorm.DB
}

// NewGormDB connects to MySQL
func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	return openGorm(mysql.Open(dsn), logger.Warn)
}

// NewSQLiteGormDB opens (or creates) a SQLite database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteGormDB(path string) (*GormDB, error) {
	gdb, err := openGorm(sqlite.Open(path), logger.Silent)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// from handing each pooled connection its own empty database.
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

func openGorm(dialector gorm.Dialector, level logger.LogLevel) (*GormDB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
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

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
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
	return gdb.db.AutoMigrate(&models.Property{})
}

// List retrieves all properties in insertion order
func (gdb *GormDB) List(ctx context.Context) ([]models.Property, error) {
	properties := []models.Property{}
	if err := gdb.db.WithContext(ctx).Order("seq ASC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// Get retrieves a property by id
func (gdb *GormDB) Get(ctx context.Context, id int) (*models.Property, error) {
	var p models.Property
	err := gdb.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %d: %w", id, err)
	}
	return &p, nil
}

// Create assigns MAX(id)+1 and inserts p in one transaction
func (gdb *GormDB) Create(ctx context.Context, p *models.Property) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID int
		if err := nextIDQuery(tx).Scan(&maxID).Error; err != nil {
			return fmt.Errorf("failed to compute next id: %w", err)
		}

		p.Seq = 0
		p.ID = maxID + 1
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create property: %w", err)
		}
		return nil
	})
}

// nextIDQuery selects the largest id in use. On MySQL the read takes
// FOR UPDATE locks so concurrent creates wait instead of computing the
// same id. SQLite serialises writers on its own.
func nextIDQuery(tx *gorm.DB) *gorm.DB {
	q := tx.Model(&models.Property{}).Select("COALESCE(MAX(id), 0)")
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// Delete removes the property with the given id
func (gdb *GormDB) Delete(ctx context.Context, id int) error {
	result := gdb.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Property{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete property %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored properties
func (gdb *GormDB) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := gdb.db.WithContext(ctx).Model(&models.Property{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
