package staff

import (
	"strconv"
	"strings"

	"github.com/warp/staffdesk/record"
)

// Validation messages shown inside edit sessions, carried over verbatim
// from the source system's dialogs.
const (
	msgDepartmentNameRequired = "部署名は必須です。"
	msgEmployeeRequired       = "名前と社員番号は必須です。"
	msgFamilyRequired         = "名前と続柄は必須です。"
	msgFamilyAgeInvalid       = "年齢は0以上の整数で入力してください。"
)

// DepartmentDraft holds the editable fields of a department.
type DepartmentDraft struct {
	Name string
}

// NewDepartmentSession opens an edit session over a department. A zero
// original is an add; a populated one an edit.
func NewDepartmentSession(original Department) *record.Session[Department, DepartmentDraft] {
	return record.NewSession(original, record.Rules[Department, DepartmentDraft]{
		Clone: Department.Clone,
		Draft: func(d Department) DepartmentDraft {
			return DepartmentDraft{Name: d.Name}
		},
		Sanitize: func(draft DepartmentDraft) (Department, *record.ValidationError) {
			if record.Blank(draft.Name) {
				return Department{}, &record.ValidationError{Field: "name", Message: msgDepartmentNameRequired}
			}
			return Department{Name: strings.TrimSpace(draft.Name)}, nil
		},
		Merge: func(original, sanitized Department) Department {
			sanitized.ID = original.ID
			sanitized.UpdatedAt = original.UpdatedAt
			return sanitized
		},
	})
}

// EmployeeDraft holds the editable fields of an employee.
type EmployeeDraft struct {
	Name           string
	EmployeeNumber string
	Department     string
}

// NewEmployeeSession opens an edit session over an employee. Name and
// employee number are required; the department name is trimmed but may be
// blank.
func NewEmployeeSession(original Employee) *record.Session[Employee, EmployeeDraft] {
	return record.NewSession(original, record.Rules[Employee, EmployeeDraft]{
		Clone: Employee.Clone,
		Draft: func(e Employee) EmployeeDraft {
			return EmployeeDraft{
				Name:           e.Name,
				EmployeeNumber: e.EmployeeNumber,
				Department:     e.Department,
			}
		},
		Sanitize: func(draft EmployeeDraft) (Employee, *record.ValidationError) {
			if record.Blank(draft.Name) || record.Blank(draft.EmployeeNumber) {
				return Employee{}, &record.ValidationError{Field: "name", Message: msgEmployeeRequired}
			}
			return Employee{
				Name:           strings.TrimSpace(draft.Name),
				EmployeeNumber: strings.TrimSpace(draft.EmployeeNumber),
				Department:     strings.TrimSpace(draft.Department),
			}, nil
		},
		Merge: func(original, sanitized Employee) Employee {
			sanitized.ID = original.ID
			sanitized.UpdatedAt = original.UpdatedAt
			return sanitized
		},
	})
}

// FamilyMemberDraft holds the editable fields of a family member. Age is
// edited as text and parsed on save.
type FamilyMemberDraft struct {
	Name         string
	Relationship string
	AgeText      string
}

// NewFamilyMemberSession opens an edit session over a family member. The
// owning employee id is part of the original's identity and survives the
// session untouched.
func NewFamilyMemberSession(original FamilyMember) *record.Session[FamilyMember, FamilyMemberDraft] {
	return record.NewSession(original, record.Rules[FamilyMember, FamilyMemberDraft]{
		Clone: FamilyMember.Clone,
		Draft: func(f FamilyMember) FamilyMemberDraft {
			draft := FamilyMemberDraft{Name: f.Name, Relationship: f.Relationship}
			if f.Age > 0 {
				draft.AgeText = strconv.Itoa(f.Age)
			}
			return draft
		},
		Sanitize: func(draft FamilyMemberDraft) (FamilyMember, *record.ValidationError) {
			if record.Blank(draft.Name) || record.Blank(draft.Relationship) {
				return FamilyMember{}, &record.ValidationError{Field: "name", Message: msgFamilyRequired}
			}
			age, err := strconv.Atoi(strings.TrimSpace(draft.AgeText))
			if err != nil || age < 0 {
				return FamilyMember{}, &record.ValidationError{Field: "age", Message: msgFamilyAgeInvalid}
			}
			return FamilyMember{
				Name:         strings.TrimSpace(draft.Name),
				Relationship: strings.TrimSpace(draft.Relationship),
				Age:          age,
			}, nil
		},
		Merge: func(original, sanitized FamilyMember) FamilyMember {
			sanitized.ID = original.ID
			sanitized.EmployeeID = original.EmployeeID
			sanitized.UpdatedAt = original.UpdatedAt
			return sanitized
		},
	})
}
