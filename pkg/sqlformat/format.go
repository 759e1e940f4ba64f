// Package sqlformat stores properties in a SQLite database through gorm. Each
// property is one row of the "properties" table; the encoded record is kept
// next to readable columns so the table can be inspected with plain SQL.
package sqlformat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	props "github.com/goliatone/go-props"
	"github.com/goliatone/go-props/log"
)

const extension = "sqlite"

// Row is the stored shape of one property.
type Row struct {
	ID      uint   `gorm:"primaryKey"`
	Address string `gorm:"not null;index"`
	Setter  string `gorm:"not null"`
	Getter  string
	Class   string
	OwnerID int
	Type    string
	Value   string
	Record  []byte `gorm:"not null"`
}

func (Row) TableName() string { return "properties" }

// Format implements props.Format on top of gorm and SQLite.
type Format struct {
	Logger log.Logger
	// BatchSize bounds the rows inserted per statement.
	BatchSize int
}

var _ props.Format = (*Format)(nil)

// New returns a SQLite format that logs to logger.
func New(logger log.Logger) *Format {
	return &Format{Logger: logger}
}

func (f *Format) Name() string      { return "sqlite" }
func (f *Format) Extension() string { return extension }

func (f *Format) logger() log.Logger {
	if f.Logger == nil {
		return log.DiscardLogger
	}
	return f.Logger
}

func (f *Format) batchSize() int {
	if f.BatchSize <= 0 {
		return 100
	}
	return f.BatchSize
}

func open(path string) (*gorm.DB, func(), error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sqlformat: open %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sqlformat: open %s: %w", path, err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

// Compile replaces the rows of the properties table with records.
func (f *Format) Compile(ctx context.Context, records []*props.Record, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sqlformat: create directory for %s: %w", path, err)
	}
	db, closeDB, err := open(path)
	if err != nil {
		return err
	}
	defer closeDB()

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		raw, err := props.MarshalRecord(rec)
		if err != nil {
			f.logger().Warnf("skipping property %s: %v", rec.Key(), err)
			continue
		}
		rows = append(rows, Row{
			Address: rec.Address(),
			Setter:  rec.Setter(),
			Getter:  rec.Getter(),
			Class:   rec.Class(),
			OwnerID: rec.ID(),
			Type:    rec.Value().Type().Token(),
			Value:   rec.Value().String(),
			Record:  raw,
		})
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&Row{}); err != nil {
			return fmt.Errorf("sqlformat: migrate %s: %w", path, err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Row{}).Error; err != nil {
			return fmt.Errorf("sqlformat: reset %s: %w", path, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, f.batchSize()).Error; err != nil {
			return fmt.Errorf("sqlformat: write %s: %w", path, err)
		}
		return nil
	})
}

// Load reads every row of the properties table. Rows whose record does not
// decode are skipped.
func (f *Format) Load(ctx context.Context, path string) ([]*props.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlformat: read %s: %w", path, err)
	}
	db, closeDB, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	if !db.Migrator().HasTable(&Row{}) {
		return nil, fmt.Errorf("sqlformat: %s: %w: no properties table", path, props.ErrMalformed)
	}
	var rows []Row
	if err := db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlformat: read %s: %w", path, err)
	}
	f.logger().Infof("loading %d property-items from %s", len(rows), path)
	records := make([]*props.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := props.UnmarshalRecord(row.Record)
		if err != nil {
			f.logger().Warnf("skipping row %d in %s: %v", row.ID, path, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
