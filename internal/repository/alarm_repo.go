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

type AlarmSetSQLite struct {
	db *sql.DB
}

func NewAlarmSetSQLite(db *sql.DB) *AlarmSetSQLite { return &AlarmSetSQLite{db: db} }

var _ AlarmSetRepo = (*AlarmSetSQLite)(nil)

const (
	upsertAlarmSetSQL = `
		INSERT INTO alarm_sets (id, machine_id, name, alarms, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			machine_id=excluded.machine_id,
			name=excluded.name,
			alarms=excluded.alarms,
			updated_at=excluded.updated_at
	`
	selectAlarmSetSQL        = `SELECT id, machine_id, name, alarms, updated_at FROM alarm_sets WHERE id = ?`
	selectAlarmSetsByMachine = `SELECT id, machine_id, name, alarms, updated_at FROM alarm_sets WHERE machine_id = ? ORDER BY updated_at DESC`
	deleteAlarmSetSQL        = `DELETE FROM alarm_sets WHERE id = ?`
)

// Save upserts an alarm set with fired flags zeroed; playback handles are
// excluded from the JSON shape by the Alarm type itself.
func (r *AlarmSetSQLite) Save(ctx context.Context, a StoredAlarmSet) error {
	alarms := append([]trigger.Alarm(nil), a.Alarms...)
	for i := range alarms {
		alarms[i].Fired = false
		alarms[i].Playback = ""
	}
	blob, err := json.Marshal(alarms)
	if err != nil {
		return fmt.Errorf("marshal alarm set %q: %w", a.ID, err)
	}

	ts := a.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertAlarmSetSQL, a.ID, a.MachineID, a.Name, string(blob), ts)
	return err
}

// Get fetches one alarm set. Returns (nil, nil) when it does not exist.
func (r *AlarmSetSQLite) Get(ctx context.Context, id string) (*StoredAlarmSet, error) {
	row := r.db.QueryRowContext(ctx, selectAlarmSetSQL, id)
	a, err := scanAlarmSet(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// List returns every alarm set stored for a machine, newest first.
func (r *AlarmSetSQLite) List(ctx context.Context, machineID string) ([]StoredAlarmSet, error) {
	rows, err := r.db.QueryContext(ctx, selectAlarmSetsByMachine, machineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredAlarmSet
	for rows.Next() {
		a, err := scanAlarmSet(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AlarmSetSQLite) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, deleteAlarmSetSQL, id)
	return err
}

func scanAlarmSet(scan func(...any) error) (*StoredAlarmSet, error) {
	var a StoredAlarmSet
	var blob string
	if err := scan(&a.ID, &a.MachineID, &a.Name, &blob, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(blob), &a.Alarms); err != nil {
		return nil, fmt.Errorf("unmarshal alarm set %q: %w", a.ID, err)
	}
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
