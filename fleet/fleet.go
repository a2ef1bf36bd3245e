// Package fleet implements the standalone drone record family: a single
// flat collection with the same load/selection/edit orchestration as the
// staff hierarchy, collapsed to one level.
package fleet

import (
	"context"
	"strings"
	"time"

	"github.com/warp/staffdesk/record"
)

const (
	msgDroneRequired = "名前とシリアル番号は必須です。"
	msgCommandFailed = "操作を完了できませんでした。"
)

// Drone is a standalone record; nothing depends on it and it depends on
// nothing, so deletes never cascade.
type Drone struct {
	ID           int64
	Name         string
	SerialNumber string
	Manufacturer string
	UpdatedAt    time.Time
}

func (d *Drone) RecordID() int64      { return d.ID }
func (d *Drone) SetRecordID(id int64) { d.ID = id }
func (d *Drone) Stamp(t time.Time)    { d.UpdatedAt = t }

func (d Drone) Clone() Drone { return d }

func (d Drone) String() string { return d.Name }

// Gateway is the persistence contract for the drone store. Implemented by
// store/sqlite.FleetStore.
type Gateway interface {
	Drones(ctx context.Context) ([]Drone, error)
	InsertDrone(ctx context.Context, d *Drone) error
	UpdateDrone(ctx context.Context, d *Drone) error
	DeleteDrone(ctx context.Context, id int64) error
}

// DroneDraft holds the editable fields of a drone.
type DroneDraft struct {
	Name         string
	SerialNumber string
	Manufacturer string
}

// NewDroneSession opens an edit session over a drone. Name and serial
// number are required; the manufacturer is trimmed but may be blank.
func NewDroneSession(original Drone) *record.Session[Drone, DroneDraft] {
	return record.NewSession(original, record.Rules[Drone, DroneDraft]{
		Clone: Drone.Clone,
		Draft: func(d Drone) DroneDraft {
			return DroneDraft{
				Name:         d.Name,
				SerialNumber: d.SerialNumber,
				Manufacturer: d.Manufacturer,
			}
		},
		Sanitize: func(draft DroneDraft) (Drone, *record.ValidationError) {
			if record.Blank(draft.Name) || record.Blank(draft.SerialNumber) {
				return Drone{}, &record.ValidationError{Field: "name", Message: msgDroneRequired}
			}
			return Drone{
				Name:         strings.TrimSpace(draft.Name),
				SerialNumber: strings.TrimSpace(draft.SerialNumber),
				Manufacturer: strings.TrimSpace(draft.Manufacturer),
			}, nil
		},
		Merge: func(original, sanitized Drone) Drone {
			sanitized.ID = original.ID
			sanitized.UpdatedAt = original.UpdatedAt
			return sanitized
		},
	})
}

// Editor presents one drone for modification and returns the accepted
// replacement, or ok=false when the user declines.
type Editor func(Drone) (Drone, bool)

// ViewState mirrors the drone collection and the current selection.
type ViewState struct {
	gw   Gateway
	busy bool

	Drones []Drone

	selected *Drone
}

func NewViewState(gw Gateway) *ViewState {
	return &ViewState{gw: gw}
}

// LoadAll refreshes the collection. A second invocation while one is in
// flight is a silent no-op. The selection survives the reload if its id is
// still present, otherwise it clears.
func (v *ViewState) LoadAll(ctx context.Context) error {
	if v.busy {
		return nil
	}
	v.busy = true
	defer func() { v.busy = false }()

	items, err := v.gw.Drones(ctx)
	if err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	v.Drones = items
	if v.selected != nil {
		want := v.selected.ID
		v.selected = nil
		for i := range items {
			if items[i].ID == want {
				v.selected = &items[i]
				break
			}
		}
	}
	return nil
}

// Select changes the selected drone; an unknown id clears the selection.
func (v *ViewState) Select(id int64) {
	v.selected = nil
	for i := range v.Drones {
		if v.Drones[i].ID == id {
			v.selected = &v.Drones[i]
			break
		}
	}
}

func (v *ViewState) Selected() *Drone { return v.selected }

// CanEdit reports whether an edit has a determinable target. Recomputed on
// every call; there is no cached can-execute state.
func (v *ViewState) CanEdit(target *Drone) bool {
	return target != nil || v.selected != nil
}

// Add runs edit over a blank drone and persists the accepted record.
func (v *ViewState) Add(ctx context.Context, edit Editor) error {
	updated, ok := edit(Drone{})
	if !ok {
		return nil
	}
	if err := v.gw.InsertDrone(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// Edit edits target, defaulting to the current selection. The accepted
// record keeps the target's identity.
func (v *ViewState) Edit(ctx context.Context, target *Drone, edit Editor) error {
	rec := target
	if rec == nil {
		rec = v.selected
	}
	if rec == nil {
		return nil
	}
	updated, ok := edit(rec.Clone())
	if !ok {
		return nil
	}
	updated.ID = rec.ID
	if err := v.gw.UpdateDrone(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// Delete removes target (default: current selection).
func (v *ViewState) Delete(ctx context.Context, target *Drone) error {
	rec := target
	if rec == nil {
		rec = v.selected
	}
	if rec == nil {
		return nil
	}
	if err := v.gw.DeleteDrone(ctx, rec.ID); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}
