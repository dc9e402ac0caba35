// Package migration runs the schema migrations needed by the database
// drivers (the kv_entries table of the "database" blob store).
//
// Migrations register themselves from database/migrations:
//
//	func init() {
//	    migration.Register("20240601000000_create_kv_entries_table", &CreateKVEntriesTable{})
//	}
//
// Run from the CLI:
//
//	mazraa migrate             // run all pending
//	mazraa migrate:rollback    // rollback last batch
//	mazraa migrate:status
package migration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/mazraa/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// record is a row of the tracking table.
type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "mazraa_migrations" }

type registered struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry []registered
)

// Register adds a migration. name should start with a sortable timestamp.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, registered{name: name, m: m})
}

func snapshot() []registered {
	mu.Lock()
	defer mu.Unlock()
	out := append([]registered(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ErrNotRegistered is returned by Rollback for a ran migration whose code
// is gone.
var ErrNotRegistered = errors.New("migration not registered")

// Status is one line of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes and tracks migrations.
type Runner struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) ensureTable() error {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read table: %w", err)
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

// Run applies every pending migration as one batch and returns their names.
func (r *Runner) Run() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}

	var pending []registered
	for _, reg := range snapshot() {
		if _, ok := done[reg.name]; !ok {
			pending = append(pending, reg)
		}
	}
	if len(pending) == 0 {
		logger.Debug("migration: nothing to migrate")
		return nil, nil
	}

	batch := r.lastBatch() + 1
	names := make([]string, 0, len(pending))
	for _, reg := range pending {
		logger.Info("migration: running", "name", reg.name, "batch", batch)
		if err := reg.m.Up(r.db); err != nil {
			return names, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.db.Create(&record{Name: reg.name, Batch: batch}).Error; err != nil {
			return names, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		names = append(names, reg.name)
	}
	return names, nil
}

// Rollback reverses the most recent batch and returns what it undid.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	batch := r.lastBatch()
	if batch == 0 {
		return nil, nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Migration)
	for _, reg := range snapshot() {
		byName[reg.name] = reg.m
	}

	var names []string
	for _, row := range rows {
		m, ok := byName[row.Name]
		if !ok {
			return names, fmt.Errorf("migration: %s: %w", row.Name, ErrNotRegistered)
		}
		logger.Info("migration: rolling back", "name", row.Name)
		if err := m.Down(r.db); err != nil {
			return names, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		if err := r.db.Delete(&row).Error; err != nil {
			return names, err
		}
		names = append(names, row.Name)
	}
	return names, nil
}

// Status lists every registered migration and whether it ran.
func (r *Runner) Status() ([]Status, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	regs := snapshot()
	out := make([]Status, 0, len(regs))
	for _, reg := range regs {
		row, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: row.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() int {
	var res struct{ Max int }
	r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&res)
	return res.Max
}
