package sqlite

import (
	"context"

	"github.com/warp/staffdesk/fleet"
	"github.com/warp/staffdesk/record"
)

const fleetSchema = `
CREATE TABLE IF NOT EXISTS Drones (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	Name TEXT NOT NULL,
	SerialNumber TEXT NOT NULL,
	Manufacturer TEXT NOT NULL,
	UpdatedAt TEXT NOT NULL
);
`

// Operation summaries carried by fleet storage failures.
const (
	msgFleetInit   = "データベースの初期化に失敗しました。"
	msgDroneList   = "ドローン一覧の取得に失敗しました。"
	msgDroneInsert = "ドローン情報の追加に失敗しました。"
	msgDroneUpdate = "ドローン情報の更新に失敗しました。"
	msgDroneDelete = "ドローンの削除に失敗しました。"
)

// FleetStore owns the drone database file. It implements fleet.Gateway.
// Drones are standalone records, so there are no cascade rules here.
type FleetStore struct {
	conn
	drones table[*fleet.Drone]
}

// NewFleetStore creates a store over the given database path. Use
// ":memory:" for an in-memory database.
func NewFleetStore(path string) *FleetStore {
	return &FleetStore{
		conn: conn{path: path},
		drones: table[*fleet.Drone]{
			name:    "Drones",
			columns: []string{"Name", "SerialNumber", "Manufacturer", "UpdatedAt"},
			orderBy: "Name COLLATE NOCASE",
			bind: func(d *fleet.Drone) []any {
				return []any{d.Name, d.SerialNumber, d.Manufacturer, formatTime(d.UpdatedAt)}
			},
			scan: scanDrone,
			msg: tableMessages{
				list:   msgDroneList,
				insert: msgDroneInsert,
				update: msgDroneUpdate,
			},
		},
	}
}

func scanDrone(s scanner) (*fleet.Drone, error) {
	var d fleet.Drone
	var updatedAt string
	if err := s.Scan(&d.ID, &d.Name, &d.SerialNumber, &d.Manufacturer, &updatedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt = t
	return &d, nil
}

// Initialize lazily opens the database, creates the schema, and seeds the
// fixed drone records when the table is first observed empty.
func (s *FleetStore) Initialize(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if err := s.open(ctx, fleetSchema); err != nil {
		return record.WrapStorage(msgFleetInit, err)
	}

	count, err := s.count(ctx, "Drones")
	if err != nil {
		return record.WrapStorage(msgFleetInit, err)
	}

	s.ready = true

	if count == 0 {
		seed := []fleet.Drone{
			{Name: "偵察機アルファ", SerialNumber: "DRN-001", Manufacturer: "スカイワークス"},
			{Name: "輸送機ベータ", SerialNumber: "DRN-002", Manufacturer: "エアロ技研"},
			{Name: "撮影機ガンマ", SerialNumber: "DRN-003", Manufacturer: "スカイワークス"},
		}
		for i := range seed {
			if err := s.InsertDrone(ctx, &seed[i]); err != nil {
				return record.WrapStorage(msgFleetInit, err)
			}
		}
	}
	return nil
}

// Drones returns all drones ordered case-insensitively by name.
func (s *FleetStore) Drones(ctx context.Context) ([]fleet.Drone, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	items, err := s.drones.list(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *FleetStore) InsertDrone(ctx context.Context, d *fleet.Drone) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.drones.insert(ctx, s.db, d)
}

func (s *FleetStore) UpdateDrone(ctx context.Context, d *fleet.Drone) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.drones.update(ctx, s.db, d)
}

func (s *FleetStore) DeleteDrone(ctx context.Context, id int64) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM Drones WHERE Id = ?", id); err != nil {
		return record.WrapStorage(msgDroneDelete, err)
	}
	return nil
}

var _ fleet.Gateway = (*FleetStore)(nil)
