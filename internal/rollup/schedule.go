package rollup

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Batch cadences. Each cadence fires once per completed period: daily every
// day, weekly on Mondays, monthly on the first of the month.
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
)

// ValidCadence reports whether c names a supported batch cadence.
func ValidCadence(c string) bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	}
	return false
}

// Schedule defines one batch trigger loaded from a YAML file.
// Schedules are loaded at startup and fingerprinted for staleness detection.
type Schedule struct {
	Name        string `yaml:"name"`
	Cadence     string `yaml:"cadence"` // daily, weekly, monthly
	At          string `yaml:"at"`      // "HH:MM" wall-clock trigger time, UTC
	Hour        int    // parsed from At
	Minute      int    // parsed from At
	Fingerprint string // SHA-256 of the raw YAML file; computed at load time
}

// rawSchedule is the on-disk YAML shape.
type rawSchedule struct {
	Name    string `yaml:"name"`
	Cadence string `yaml:"cadence"`
	At      string `yaml:"at"`
}

// ScheduleRepository defines the interface for loading batch schedules.
type ScheduleRepository interface {
	// Get returns the schedule with the given name, or an error if not found.
	Get(ctx context.Context, name string) (*Schedule, error)

	// List returns all loaded schedules, optionally filtered by cadence.
	List(ctx context.Context, cadence string) ([]Schedule, error)

	// GetSchedules returns all schedules as a slice (for the ticker loop).
	GetSchedules() []Schedule
}

// FileSystemScheduleRepository loads batch schedules from *.yaml files in a
// directory. Each file contains exactly one schedule at the top level.
// Schedules are loaded once at startup and cached in memory.
type FileSystemScheduleRepository struct {
	dir       string
	schedules map[string]Schedule // keyed by Name
}

// NewFileSystemScheduleRepository creates a new repository and eagerly loads
// all schedules from dir. Returns an error if any schedule file is malformed.
func NewFileSystemScheduleRepository(dir string) (*FileSystemScheduleRepository, error) {
	repo := &FileSystemScheduleRepository{
		dir:       dir,
		schedules: make(map[string]Schedule),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemScheduleRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no schedule directory, valid (zero schedules configured)
	}
	if err != nil {
		return fmt.Errorf("batch schedule dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("batch schedule path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading batch schedule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading schedule file %s: %w", path, err)
		}

		var raw rawSchedule
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing schedule file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		if !ValidCadence(raw.Cadence) {
			return fmt.Errorf("schedule %q: unsupported cadence %q", raw.Name, raw.Cadence)
		}

		hour, minute, err := parseClockTime(raw.At)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", raw.Name, err)
		}

		if _, exists := r.schedules[raw.Name]; exists {
			return fmt.Errorf("schedule %q: duplicate schedule name (check multiple YAML files)", raw.Name)
		}

		r.schedules[raw.Name] = Schedule{
			Name:        raw.Name,
			Cadence:     raw.Cadence,
			At:          raw.At,
			Hour:        hour,
			Minute:      minute,
			Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
		}
	}
	return nil
}

// Get returns the schedule with the given name, or an error if not found.
func (r *FileSystemScheduleRepository) Get(_ context.Context, name string) (*Schedule, error) {
	schedule, ok := r.schedules[name]
	if !ok {
		return nil, fmt.Errorf("batch schedule %q not found", name)
	}
	return &schedule, nil
}

// List returns all loaded schedules, optionally filtered by cadence.
func (r *FileSystemScheduleRepository) List(_ context.Context, cadence string) ([]Schedule, error) {
	var out []Schedule
	for _, schedule := range r.schedules {
		if cadence != "" && schedule.Cadence != cadence {
			continue
		}
		out = append(out, schedule)
	}
	return out, nil
}

// GetSchedules returns all schedules as a slice (for the ticker loop).
func (r *FileSystemScheduleRepository) GetSchedules() []Schedule {
	schedules := make([]Schedule, 0, len(r.schedules))
	for _, schedule := range r.schedules {
		schedules = append(schedules, schedule)
	}
	return schedules
}

// parseClockTime parses a "HH:MM" trigger time.
func parseClockTime(at string) (hour, minute int, err error) {
	if _, scanErr := fmt.Sscanf(at, "%d:%d", &hour, &minute); scanErr != nil {
		return 0, 0, fmt.Errorf("invalid trigger time %q (want HH:MM)", at)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("trigger time %q out of range", at)
	}
	return hour, minute, nil
}
