package sqlite

import (
	"context"

	"github.com/warp/staffdesk/record"
	"github.com/warp/staffdesk/staff"
)

const staffSchema = `
CREATE TABLE IF NOT EXISTS Departments (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	Name TEXT NOT NULL,
	UpdatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Employees (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	Name TEXT NOT NULL,
	EmployeeNumber TEXT NOT NULL,
	Department TEXT NOT NULL,
	UpdatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS FamilyMembers (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	EmployeeId INTEGER NOT NULL,
	Name TEXT NOT NULL,
	Relationship TEXT NOT NULL,
	Age INTEGER NOT NULL,
	UpdatedAt TEXT NOT NULL,
	FOREIGN KEY (EmployeeId) REFERENCES Employees (Id)
);
`

// Operation summaries carried by staff storage failures.
const (
	msgStaffInit          = "データベースの初期化に失敗しました。"
	msgDepartmentList     = "部署一覧の取得に失敗しました。"
	msgDepartmentInsert   = "部署情報の追加に失敗しました。"
	msgDepartmentUpdate   = "部署情報の更新に失敗しました。"
	msgDepartmentDelete   = "部署の削除に失敗しました。"
	msgEmployeeList       = "従業員一覧の取得に失敗しました。"
	msgEmployeeInsert     = "従業員情報の追加に失敗しました。"
	msgEmployeeUpdate     = "従業員情報の更新に失敗しました。"
	msgEmployeeDelete     = "従業員の削除に失敗しました。"
	msgFamilyList         = "家族情報の取得に失敗しました。"
	msgFamilyInsert       = "家族情報の追加に失敗しました。"
	msgFamilyUpdate       = "家族情報の更新に失敗しました。"
	msgFamilyMemberDelete = "家族の削除に失敗しました。"
)

// StaffStore owns the staff database file: departments, employees, family
// members, and the cascade rules that keep them consistent. It implements
// staff.Gateway.
type StaffStore struct {
	conn
	departments table[*staff.Department]
	employees   table[*staff.Employee]
	family      table[*staff.FamilyMember]
}

// NewStaffStore creates a store over the given database path. Use
// ":memory:" for an in-memory database. The file is not touched until the
// first operation.
func NewStaffStore(path string) *StaffStore {
	return &StaffStore{
		conn: conn{path: path},
		departments: table[*staff.Department]{
			name:    "Departments",
			columns: []string{"Name", "UpdatedAt"},
			orderBy: "Name COLLATE NOCASE",
			bind: func(d *staff.Department) []any {
				return []any{d.Name, formatTime(d.UpdatedAt)}
			},
			scan: scanDepartment,
			msg: tableMessages{
				list:   msgDepartmentList,
				insert: msgDepartmentInsert,
				update: msgDepartmentUpdate,
			},
		},
		employees: table[*staff.Employee]{
			name:    "Employees",
			columns: []string{"Name", "EmployeeNumber", "Department", "UpdatedAt"},
			orderBy: "Name COLLATE NOCASE",
			bind: func(e *staff.Employee) []any {
				return []any{e.Name, e.EmployeeNumber, e.Department, formatTime(e.UpdatedAt)}
			},
			scan: scanEmployee,
			msg: tableMessages{
				list:   msgEmployeeList,
				insert: msgEmployeeInsert,
				update: msgEmployeeUpdate,
			},
		},
		family: table[*staff.FamilyMember]{
			name:    "FamilyMembers",
			columns: []string{"EmployeeId", "Name", "Relationship", "Age", "UpdatedAt"},
			orderBy: "Id",
			bind: func(f *staff.FamilyMember) []any {
				return []any{f.EmployeeID, f.Name, f.Relationship, f.Age, formatTime(f.UpdatedAt)}
			},
			scan: scanFamilyMember,
			msg: tableMessages{
				list:   msgFamilyList,
				insert: msgFamilyInsert,
				update: msgFamilyUpdate,
			},
		},
	}
}

func scanDepartment(s scanner) (*staff.Department, error) {
	var d staff.Department
	var updatedAt string
	if err := s.Scan(&d.ID, &d.Name, &updatedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt = t
	return &d, nil
}

func scanEmployee(s scanner) (*staff.Employee, error) {
	var e staff.Employee
	var updatedAt string
	if err := s.Scan(&e.ID, &e.Name, &e.EmployeeNumber, &e.Department, &updatedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt = t
	return &e, nil
}

func scanFamilyMember(s scanner) (*staff.FamilyMember, error) {
	var f staff.FamilyMember
	var updatedAt string
	if err := s.Scan(&f.ID, &f.EmployeeID, &f.Name, &f.Relationship, &f.Age, &updatedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	f.UpdatedAt = t
	return &f, nil
}

// Initialize lazily opens the database, creates the schema, and runs the
// per-table seed pass. Idempotent for a single logical caller; every other
// operation calls it first, so explicit use is optional.
func (s *StaffStore) Initialize(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if err := s.open(ctx, staffSchema); err != nil {
		return record.WrapStorage(msgStaffInit, err)
	}

	deptCount, err := s.count(ctx, "Departments")
	if err != nil {
		return record.WrapStorage(msgStaffInit, err)
	}
	empCount, err := s.count(ctx, "Employees")
	if err != nil {
		return record.WrapStorage(msgStaffInit, err)
	}
	famCount, err := s.count(ctx, "FamilyMembers")
	if err != nil {
		return record.WrapStorage(msgStaffInit, err)
	}

	// Seed inserts go through the normal insert path, which re-enters
	// Initialize, so the flag is set before seeding starts.
	s.ready = true

	if err := s.seed(ctx, deptCount, empCount, famCount); err != nil {
		return record.WrapStorage(msgStaffInit, err)
	}
	return nil
}

// seed inserts the fixed default data, per table, only when that table was
// observed empty. Never re-seeds, never duplicates, never removes data.
func (s *StaffStore) seed(ctx context.Context, deptCount, empCount, famCount int64) error {
	if deptCount == 0 {
		for _, name := range []string{"営業部", "開発部", "人事部"} {
			if err := s.InsertDepartment(ctx, &staff.Department{Name: name}); err != nil {
				return err
			}
		}
	}

	if empCount == 0 {
		seedEmployees := []staff.Employee{
			{Name: "山田 太郎", EmployeeNumber: "EMP-001", Department: "営業部"},
			{Name: "佐藤 花子", EmployeeNumber: "EMP-002", Department: "開発部"},
			{Name: "中村 健", EmployeeNumber: "EMP-003", Department: "人事部"},
		}
		for i := range seedEmployees {
			if err := s.InsertEmployee(ctx, &seedEmployees[i]); err != nil {
				return err
			}
		}
	}

	if famCount == 0 {
		employees, err := s.EmployeesByDepartment(ctx, "")
		if err != nil {
			return err
		}
		byNumber := make(map[string]int64, len(employees))
		for _, e := range employees {
			byNumber[e.EmployeeNumber] = e.ID
		}

		seedFamily := []struct {
			number       string
			name         string
			relationship string
			age          int
		}{
			{"EMP-001", "山田 花子", "配偶者", 35},
			{"EMP-001", "山田 太郎 Jr.", "子", 8},
			{"EMP-002", "佐藤 太一", "配偶者", 33},
			{"EMP-003", "中村 葵", "配偶者", 31},
			{"EMP-003", "中村 優", "子", 4},
		}
		for _, m := range seedFamily {
			employeeID, ok := byNumber[m.number]
			if !ok {
				continue
			}
			member := staff.FamilyMember{
				EmployeeID:   employeeID,
				Name:         m.name,
				Relationship: m.relationship,
				Age:          m.age,
			}
			if err := s.InsertFamilyMember(ctx, &member); err != nil {
				return err
			}
		}
	}

	return nil
}

// Departments returns all departments ordered case-insensitively by name.
func (s *StaffStore) Departments(ctx context.Context) ([]staff.Department, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	items, err := s.departments.list(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

// EmployeesByDepartment returns the employees of the named department, or
// all employees when name is blank.
func (s *StaffStore) EmployeesByDepartment(ctx context.Context, name string) ([]staff.Employee, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	var (
		items []*staff.Employee
		err   error
	)
	if record.Blank(name) {
		items, err = s.employees.list(ctx, s.db, "")
	} else {
		items, err = s.employees.list(ctx, s.db, "Department = ?", name)
	}
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

// FamilyByEmployee returns the family members of one employee, oldest row
// first.
func (s *StaffStore) FamilyByEmployee(ctx context.Context, employeeID int64) ([]staff.FamilyMember, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	items, err := s.family.list(ctx, s.db, "EmployeeId = ?", employeeID)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *StaffStore) InsertDepartment(ctx context.Context, d *staff.Department) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.departments.insert(ctx, s.db, d)
}

func (s *StaffStore) UpdateDepartment(ctx context.Context, d *staff.Department) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.departments.update(ctx, s.db, d)
}

// DeleteDepartment removes the department row, every employee carrying its
// name, and the family members of those employees, as one transaction.
// Employees are matched by the department's name, not their id; see the
// note on Department in the staff package.
func (s *StaffStore) DeleteDepartment(ctx context.Context, d staff.Department) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.WrapStorage(msgDepartmentDelete, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM FamilyMembers WHERE EmployeeId IN
			(SELECT Id FROM Employees WHERE Department = ?)`, d.Name); err != nil {
		return record.WrapStorage(msgDepartmentDelete, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM Employees WHERE Department = ?", d.Name); err != nil {
		return record.WrapStorage(msgDepartmentDelete, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM Departments WHERE Id = ?", d.ID); err != nil {
		return record.WrapStorage(msgDepartmentDelete, err)
	}
	if err := tx.Commit(); err != nil {
		return record.WrapStorage(msgDepartmentDelete, err)
	}
	return nil
}

func (s *StaffStore) InsertEmployee(ctx context.Context, e *staff.Employee) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.employees.insert(ctx, s.db, e)
}

func (s *StaffStore) UpdateEmployee(ctx context.Context, e *staff.Employee) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.employees.update(ctx, s.db, e)
}

// DeleteEmployee removes the employee and every family member referencing
// it in one transaction. Either both deletes are visible afterwards or
// neither is.
func (s *StaffStore) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.WrapStorage(msgEmployeeDelete, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM FamilyMembers WHERE EmployeeId = ?", id); err != nil {
		return record.WrapStorage(msgEmployeeDelete, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM Employees WHERE Id = ?", id); err != nil {
		return record.WrapStorage(msgEmployeeDelete, err)
	}
	if err := tx.Commit(); err != nil {
		return record.WrapStorage(msgEmployeeDelete, err)
	}
	return nil
}

func (s *StaffStore) InsertFamilyMember(ctx context.Context, f *staff.FamilyMember) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.family.insert(ctx, s.db, f)
}

func (s *StaffStore) UpdateFamilyMember(ctx context.Context, f *staff.FamilyMember) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.family.update(ctx, s.db, f)
}

// DeleteFamilyMember is a single-row delete; nothing depends on a family
// member.
func (s *StaffStore) DeleteFamilyMember(ctx context.Context, id int64) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM FamilyMembers WHERE Id = ?", id); err != nil {
		return record.WrapStorage(msgFamilyMemberDelete, err)
	}
	return nil
}

// deref flattens the pointer slices the generic table layer produces into
// the value slices the gateway contracts return.
func deref[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}

var _ staff.Gateway = (*StaffStore)(nil)
