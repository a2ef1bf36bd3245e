/*
viewstate.go - Selection-driven load orchestration

PURPOSE:
  Maintains the ordered in-memory mirrors of the three hierarchy levels
  (departments -> employees of the selected department -> family of the
  selected employee) and keeps them consistent with selection changes and
  mutations. All persisted truth lives behind Gateway; after every mutation
  the relevant collections are reloaded rather than patched in place.

CONCURRENCY:
  One logical caller at a time. The busy flag makes a re-entrant LoadAll a
  silent no-op; it is checked-then-set without synchronization and is not a
  substitute for a lock in a concurrent host.

SEE ALSO:
  - sessions.go: validation applied before a record reaches the gateway
  - store/sqlite: the Gateway implementation
*/
package staff

import (
	"context"

	"github.com/warp/staffdesk/record"
)

// Orchestration-level messages.
const (
	msgNoEmployeeSelected = "家族を追加する従業員を選択してください。"
	msgCommandFailed      = "操作を完了できませんでした。"
)

// Editor presents one record for modification and returns the accepted
// replacement, or ok=false when the user declines. How the record is
// presented (dialog, form, HTTP body) is the caller's concern.
type Editor[T any] func(T) (T, bool)

// ViewState mirrors the currently visible records at each hierarchy level.
// The exported slices are read-only for callers; they are replaced
// wholesale on every reload.
type ViewState struct {
	gw   Gateway
	busy bool

	Departments []Department
	Employees   []Employee
	Family      []FamilyMember

	selectedDepartment *Department
	selectedEmployee   *Employee
}

func NewViewState(gw Gateway) *ViewState {
	return &ViewState{gw: gw}
}

// LoadAll refreshes all three levels, auto-selecting the first record at a
// level whose selection is absent. A second invocation while one is in
// flight is a silent no-op.
func (v *ViewState) LoadAll(ctx context.Context) error {
	if v.busy {
		return nil
	}
	v.busy = true
	defer func() { v.busy = false }()

	if err := v.reloadDepartments(ctx); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	if err := v.reloadEmployees(ctx, true); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return record.WrapBusiness(msgCommandFailed, v.reloadFamily(ctx))
}

// SelectDepartment changes the active department and re-loads the
// dependent employee and family collections. id 0 (or an id no longer
// present) clears the selection, which widens the employee list to all
// departments. The employee selection is kept only if the employee is
// still visible; the family collection stays empty until an employee is
// selected.
func (v *ViewState) SelectDepartment(ctx context.Context, id int64) error {
	v.selectedDepartment = byID(v.Departments, id)
	if err := v.reloadEmployees(ctx, false); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return record.WrapBusiness(msgCommandFailed, v.reloadFamily(ctx))
}

// SelectEmployee changes the active employee and re-loads its family
// members.
func (v *ViewState) SelectEmployee(ctx context.Context, id int64) error {
	v.selectedEmployee = byID(v.Employees, id)
	return record.WrapBusiness(msgCommandFailed, v.reloadFamily(ctx))
}

func (v *ViewState) SelectedDepartment() *Department { return v.selectedDepartment }
func (v *ViewState) SelectedEmployee() *Employee     { return v.selectedEmployee }

// CanEditDepartment reports whether a department edit has a determinable
// target: the explicit record or the current selection.
func (v *ViewState) CanEditDepartment(target *Department) bool {
	return target != nil || v.selectedDepartment != nil
}

// CanEditEmployee reports whether an employee edit has a determinable
// target.
func (v *ViewState) CanEditEmployee(target *Employee) bool {
	return target != nil || v.selectedEmployee != nil
}

// AddDepartment runs edit over a blank department and persists the
// accepted record, then reloads.
func (v *ViewState) AddDepartment(ctx context.Context, edit Editor[Department]) error {
	updated, ok := edit(Department{})
	if !ok {
		return nil
	}
	if err := v.gw.InsertDepartment(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// EditDepartment edits target, defaulting to the current selection. The
// accepted record keeps the target's identity.
func (v *ViewState) EditDepartment(ctx context.Context, target *Department, edit Editor[Department]) error {
	rec := target
	if rec == nil {
		rec = v.selectedDepartment
	}
	if rec == nil {
		return nil
	}
	updated, ok := edit(rec.Clone())
	if !ok {
		return nil
	}
	updated.ID = rec.ID
	if err := v.gw.UpdateDepartment(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// DeleteDepartment removes target (default: current selection) together
// with its employees and their family members, then reloads.
func (v *ViewState) DeleteDepartment(ctx context.Context, target *Department) error {
	rec := target
	if rec == nil {
		rec = v.selectedDepartment
	}
	if rec == nil {
		return nil
	}
	if err := v.gw.DeleteDepartment(ctx, *rec); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// AddEmployee runs edit over a blank employee pre-filled with the selected
// department's name.
func (v *ViewState) AddEmployee(ctx context.Context, edit Editor[Employee]) error {
	blank := Employee{}
	if v.selectedDepartment != nil {
		blank.Department = v.selectedDepartment.Name
	}
	updated, ok := edit(blank)
	if !ok {
		return nil
	}
	if err := v.gw.InsertEmployee(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// EditEmployee edits target, defaulting to the current selection.
func (v *ViewState) EditEmployee(ctx context.Context, target *Employee, edit Editor[Employee]) error {
	rec := target
	if rec == nil {
		rec = v.selectedEmployee
	}
	if rec == nil {
		return nil
	}
	updated, ok := edit(rec.Clone())
	if !ok {
		return nil
	}
	updated.ID = rec.ID
	if err := v.gw.UpdateEmployee(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// DeleteEmployee removes target (default: current selection) and all its
// family members, then reloads.
func (v *ViewState) DeleteEmployee(ctx context.Context, target *Employee) error {
	rec := target
	if rec == nil {
		rec = v.selectedEmployee
	}
	if rec == nil {
		return nil
	}
	if err := v.gw.DeleteEmployee(ctx, rec.ID); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// AddFamilyMember attaches a new family member to the selected employee.
// With no employee selected the action is a business-rule violation.
func (v *ViewState) AddFamilyMember(ctx context.Context, edit Editor[FamilyMember]) error {
	if v.selectedEmployee == nil {
		return &record.BusinessError{Message: msgNoEmployeeSelected}
	}
	updated, ok := edit(FamilyMember{EmployeeID: v.selectedEmployee.ID})
	if !ok {
		return nil
	}
	if err := v.gw.InsertFamilyMember(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// EditFamilyMember edits target; family members have no tracked selection,
// so a nil target is a no-op.
func (v *ViewState) EditFamilyMember(ctx context.Context, target *FamilyMember, edit Editor[FamilyMember]) error {
	if target == nil {
		return nil
	}
	updated, ok := edit(target.Clone())
	if !ok {
		return nil
	}
	updated.ID = target.ID
	if err := v.gw.UpdateFamilyMember(ctx, &updated); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

// DeleteFamilyMember removes one family member. No cascade.
func (v *ViewState) DeleteFamilyMember(ctx context.Context, target *FamilyMember) error {
	if target == nil {
		return nil
	}
	if err := v.gw.DeleteFamilyMember(ctx, target.ID); err != nil {
		return record.WrapBusiness(msgCommandFailed, err)
	}
	return v.LoadAll(ctx)
}

func (v *ViewState) reloadDepartments(ctx context.Context) error {
	items, err := v.gw.Departments(ctx)
	if err != nil {
		return err
	}
	v.Departments = items
	v.selectedDepartment = resolve(items, v.selectedDepartment, true)
	return nil
}

func (v *ViewState) reloadEmployees(ctx context.Context, autoSelect bool) error {
	name := ""
	if v.selectedDepartment != nil {
		name = v.selectedDepartment.Name
	}
	items, err := v.gw.EmployeesByDepartment(ctx, name)
	if err != nil {
		return err
	}
	v.Employees = items
	v.selectedEmployee = resolve(items, v.selectedEmployee, autoSelect)
	return nil
}

func (v *ViewState) reloadFamily(ctx context.Context) error {
	if v.selectedEmployee == nil {
		v.Family = nil
		return nil
	}
	items, err := v.gw.FamilyByEmployee(ctx, v.selectedEmployee.ID)
	if err != nil {
		return err
	}
	v.Family = items
	return nil
}

// resolve re-points a selection into a freshly loaded slice. The previous
// selection wins if its id is still present; otherwise the first record is
// selected when autoSelect is set, else the selection clears.
func resolve[T any, PT interface {
	*T
	record.Entity
}](items []T, current PT, autoSelect bool) PT {
	if current != nil {
		want := current.RecordID()
		for i := range items {
			if PT(&items[i]).RecordID() == want {
				return &items[i]
			}
		}
	}
	if autoSelect && len(items) > 0 {
		return &items[0]
	}
	return nil
}

// byID finds a record in a loaded slice, or nil.
func byID[T any, PT interface {
	*T
	record.Entity
}](items []T, id int64) PT {
	for i := range items {
		if PT(&items[i]).RecordID() == id {
			return &items[i]
		}
	}
	return nil
}
