// Package staff implements the department / employee / family-member
// hierarchy: record shapes, the storage gateway contract, edit sessions,
// and the selection-driven view state that keeps the three levels
// consistent.
package staff

import (
	"context"
	"fmt"
	"time"
)

// Department is the top of the hierarchy. Employees reference a department
// by its name, not its id; renaming a department does not rewrite existing
// employees' Department field, so rows can be orphaned until edited. This
// matches the source system and is deliberately left as observed.
type Department struct {
	ID        int64
	Name      string
	UpdatedAt time.Time
}

func (d *Department) RecordID() int64      { return d.ID }
func (d *Department) SetRecordID(id int64) { d.ID = id }
func (d *Department) Stamp(t time.Time)    { d.UpdatedAt = t }

func (d Department) Clone() Department { return d }

func (d Department) String() string { return d.Name }

// Employee belongs to a department via the denormalized Department name.
type Employee struct {
	ID             int64
	Name           string
	EmployeeNumber string
	Department     string
	UpdatedAt      time.Time
}

func (e *Employee) RecordID() int64      { return e.ID }
func (e *Employee) SetRecordID(id int64) { e.ID = id }
func (e *Employee) Stamp(t time.Time)    { e.UpdatedAt = t }

func (e Employee) Clone() Employee { return e }

func (e Employee) String() string { return fmt.Sprintf("%s (%s)", e.Name, e.EmployeeNumber) }

// FamilyMember depends on an employee by numeric id. Deleting the employee
// deletes its family members first, atomically.
type FamilyMember struct {
	ID           int64
	EmployeeID   int64
	Name         string
	Relationship string
	Age          int
	UpdatedAt    time.Time
}

func (f *FamilyMember) RecordID() int64      { return f.ID }
func (f *FamilyMember) SetRecordID(id int64) { f.ID = id }
func (f *FamilyMember) Stamp(t time.Time)    { f.UpdatedAt = t }

func (f FamilyMember) Clone() FamilyMember { return f }

func (f FamilyMember) String() string { return fmt.Sprintf("%s (%s)", f.Name, f.Relationship) }

// Gateway is the persistence contract the view state drives. Every
// operation lazily bootstraps the schema and seed data on first use.
// Implemented by store/sqlite.StaffStore.
type Gateway interface {
	// Departments returns all departments ordered case-insensitively by name.
	Departments(ctx context.Context) ([]Department, error)
	// EmployeesByDepartment returns employees of the named department, or
	// all employees when name is blank, ordered case-insensitively by name.
	EmployeesByDepartment(ctx context.Context, name string) ([]Employee, error)
	// FamilyByEmployee returns the family members of one employee, ordered
	// by id.
	FamilyByEmployee(ctx context.Context, employeeID int64) ([]FamilyMember, error)

	InsertDepartment(ctx context.Context, d *Department) error
	UpdateDepartment(ctx context.Context, d *Department) error
	// DeleteDepartment removes the department, every employee carrying its
	// name and their family members, as one atomic transaction.
	DeleteDepartment(ctx context.Context, d Department) error

	InsertEmployee(ctx context.Context, e *Employee) error
	UpdateEmployee(ctx context.Context, e *Employee) error
	// DeleteEmployee removes the employee and all dependent family members
	// as one atomic transaction.
	DeleteEmployee(ctx context.Context, id int64) error

	InsertFamilyMember(ctx context.Context, f *FamilyMember) error
	UpdateFamilyMember(ctx context.Context, f *FamilyMember) error
	DeleteFamilyMember(ctx context.Context, id int64) error
}
