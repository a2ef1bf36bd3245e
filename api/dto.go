/*
dto.go - Request/response shapes for the HTTP surface

Pure data carriers decoupling the record types from the wire contract.
Save* request bodies carry fields exactly as entered - the family member
age stays a string here and is parsed by the edit session, so a
non-numeric value produces the session's validation message rather than a
JSON decoding error.
*/
package api

import (
	"time"

	"github.com/warp/staffdesk/fleet"
	"github.com/warp/staffdesk/staff"
)

type DepartmentDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

type EmployeeDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	EmployeeNumber string `json:"employee_number"`
	Department     string `json:"department"`
	UpdatedAt      string `json:"updated_at"`
}

type FamilyMemberDTO struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Age          int    `json:"age"`
	UpdatedAt    string `json:"updated_at"`
}

type DroneDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Manufacturer string `json:"manufacturer"`
	UpdatedAt    string `json:"updated_at"`
}

// StaffViewDTO is a snapshot of the staff view state: the three visible
// collections plus the current selections.
type StaffViewDTO struct {
	Departments          []DepartmentDTO   `json:"departments"`
	Employees            []EmployeeDTO     `json:"employees"`
	Family               []FamilyMemberDTO `json:"family"`
	SelectedDepartmentID int64             `json:"selected_department_id,omitempty"`
	SelectedEmployeeID   int64             `json:"selected_employee_id,omitempty"`
}

// FleetViewDTO is a snapshot of the drone view state.
type FleetViewDTO struct {
	Drones          []DroneDTO `json:"drones"`
	SelectedDroneID int64      `json:"selected_drone_id,omitempty"`
}

type SaveDepartmentRequest struct {
	Name string `json:"name"`
}

// SaveEmployeeRequest carries the employee dialog fields. A blank (or
// omitted) department means "no change": on update the employee keeps its
// current department, on create the pre-filled selected department stands.
// Moving an employee out of every department is not expressible over the
// wire; assign it another department instead.
type SaveEmployeeRequest struct {
	Name           string `json:"name"`
	EmployeeNumber string `json:"employee_number"`
	Department     string `json:"department"`
}

type SaveFamilyMemberRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Age          string `json:"age"`
}

type SaveDroneRequest struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Manufacturer string `json:"manufacturer"`
}

type SelectRequest struct {
	ID int64 `json:"id"`
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func toDepartmentDTO(d staff.Department) DepartmentDTO {
	return DepartmentDTO{ID: d.ID, Name: d.Name, UpdatedAt: formatTime(d.UpdatedAt)}
}

func toEmployeeDTO(e staff.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             e.ID,
		Name:           e.Name,
		EmployeeNumber: e.EmployeeNumber,
		Department:     e.Department,
		UpdatedAt:      formatTime(e.UpdatedAt),
	}
}

func toFamilyMemberDTO(f staff.FamilyMember) FamilyMemberDTO {
	return FamilyMemberDTO{
		ID:           f.ID,
		EmployeeID:   f.EmployeeID,
		Name:         f.Name,
		Relationship: f.Relationship,
		Age:          f.Age,
		UpdatedAt:    formatTime(f.UpdatedAt),
	}
}

func toDroneDTO(d fleet.Drone) DroneDTO {
	return DroneDTO{
		ID:           d.ID,
		Name:         d.Name,
		SerialNumber: d.SerialNumber,
		Manufacturer: d.Manufacturer,
		UpdatedAt:    formatTime(d.UpdatedAt),
	}
}
