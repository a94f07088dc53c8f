package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roaster_control/internal/trigger"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite { return &ScheduleSQLite{db: db} }

var _ ScheduleRepo = (*ScheduleSQLite)(nil)

const (
	upsertScheduleSQL = `
		INSERT INTO schedules (id, machine_id, name, steps, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			machine_id=excluded.machine_id,
			name=excluded.name,
			steps=excluded.steps,
			updated_at=excluded.updated_at
	`
	selectScheduleSQL        = `SELECT id, machine_id, name, steps, updated_at FROM schedules WHERE id = ?`
	selectSchedulesByMachine = `SELECT id, machine_id, name, steps, updated_at FROM schedules WHERE machine_id = ? ORDER BY updated_at DESC`
	deleteScheduleSQL        = `DELETE FROM schedules WHERE id = ?`
)

// Save upserts a schedule; steps are stored as JSON with runtime flags
// zeroed so a loaded schedule always starts unfired.
func (r *ScheduleSQLite) Save(ctx context.Context, s StoredSchedule) error {
	steps := append([]trigger.Step(nil), s.Steps...)
	for i := range steps {
		steps[i].Fired = false
	}
	blob, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal schedule %q steps: %w", s.ID, err)
	}

	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertScheduleSQL, s.ID, s.MachineID, s.Name, string(blob), ts)
	return err
}

// Get fetches one schedule. Returns (nil, nil) when it does not exist.
func (r *ScheduleSQLite) Get(ctx context.Context, id string) (*StoredSchedule, error) {
	row := r.db.QueryRowContext(ctx, selectScheduleSQL, id)
	s, err := scanSchedule(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// List returns every schedule stored for a machine, newest first.
func (r *ScheduleSQLite) List(ctx context.Context, machineID string) ([]StoredSchedule, error) {
	rows, err := r.db.QueryContext(ctx, selectSchedulesByMachine, machineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredSchedule
	for rows.Next() {
		s, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *ScheduleSQLite) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, deleteScheduleSQL, id)
	return err
}

func scanSchedule(scan func(...any) error) (*StoredSchedule, error) {
	var s StoredSchedule
	var blob string
	if err := scan(&s.ID, &s.MachineID, &s.Name, &blob, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(blob), &s.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal schedule %q steps: %w", s.ID, err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}
