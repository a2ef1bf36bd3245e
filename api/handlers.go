/*
handlers.go - HTTP handlers over the two view states

PURPOSE:
  Exposes the record layer via REST. The HTTP layer plays the role of the
  dialog collaborator: a mutation body is run through the matching edit
  session, and the session either accepts a sanitized replacement record
  (which the view state persists and reloads) or declines with a
  field-level message that comes back as a 400.

ERROR HANDLING:
  - 400: invalid JSON, or an edit session validation message
  - 404: target id not visible in the current view
  - 409: business-rule violations (BusinessError)
  - 500: storage failures and anything unclassified
  Failure bodies carry the user-presentable summary chosen by
  record.Describe; technical detail goes to the log, not the client.

CONCURRENCY:
  The view states assume one logical caller, so every handler serializes
  through a single mutex. The storage layer needs no such protection.

SEE ALSO:
  - dto.go: wire shapes
  - server.go: routing and middleware
*/
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/staffdesk/fleet"
	"github.com/warp/staffdesk/record"
	"github.com/warp/staffdesk/staff"
)

// Handler holds the view states driven by the HTTP surface.
type Handler struct {
	mu    sync.Mutex
	staff *staff.ViewState
	fleet *fleet.ViewState
	log   *slog.Logger
}

func NewHandler(staffView *staff.ViewState, fleetView *fleet.ViewState, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{staff: staffView, fleet: fleetView, log: logger}
}

// =============================================================================
// STAFF VIEW
// =============================================================================

// StaffView reloads and returns the full hierarchy snapshot.
func (h *Handler) StaffView(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.staff.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.staffViewDTO())
}

// SelectDepartment changes the active department and returns the refreshed
// snapshot.
func (h *Handler) SelectDepartment(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.staff.SelectDepartment(r.Context(), req.ID); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.staffViewDTO())
}

// SelectEmployee changes the active employee and returns the refreshed
// snapshot.
func (h *Handler) SelectEmployee(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.staff.SelectEmployee(r.Context(), req.ID); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.staffViewDTO())
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req SaveDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var declined string
	err := h.staff.AddDepartment(r.Context(), departmentEditor(req, &declined))
	h.finishMutation(w, r, err, declined, http.StatusCreated)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	target, ok := h.findDepartment(w, r, id)
	if !ok {
		return
	}
	var declined string
	err := h.staff.EditDepartment(r.Context(), target, departmentEditor(req, &declined))
	h.finishMutation(w, r, err, declined, http.StatusOK)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	target, ok := h.findDepartment(w, r, id)
	if !ok {
		return
	}
	if err := h.staff.DeleteDepartment(r.Context(), target); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.staffViewDTO())
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var declined string
	err := h.staff.AddEmployee(r.Context(), employeeEditor(req, &declined))
	h.finishMutation(w, r, err, declined, http.StatusCreated)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	target, ok := h.findEmployee(w, r, id)
	if !ok {
		return
	}
	var declined string
	err := h.staff.EditEmployee(r.Context(), target, employeeEditor(req, &declined))
	h.finishMutation(w, r, err, declined, http.StatusOK)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	target, ok := h.findEmployee(w, r, id)
	if !ok {
		return
	}
	if err := h.staff.DeleteEmployee(r.Context(), target); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.staffViewDTO())
}

// =============================================================================
// FAMILY MEMBERS
// =============================================================================

// CreateFamilyMember attaches a family member to the currently selected
// employee; with none selected this is a business-rule violation (409).
func (h *Handler) CreateFamilyMember(w http.ResponseWriter, r *http.Request) {
	var req SaveFamilyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var declined string
	err := h.staff.AddFamilyMember(r.Context(), familyMemberEditor(req, &declined))
	h.finishMutation(w, r, err, declined, http.StatusCreated)
}

func (h *Handler) UpdateFamilyMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveFamilyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	target, ok := h.findFamilyMember(w, r, id)
	if !ok {
		return
	}
	var declined string
	err := h.staff.EditFamilyMember(r.Context(), target, familyMemberEditor(req, &declined))
	h.finishMutation(w, r, err, declined, http.StatusOK)
}

func (h *Handler) DeleteFamilyMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	target, ok := h.findFamilyMember(w, r, id)
	if !ok {
		return
	}
	if err := h.staff.DeleteFamilyMember(r.Context(), target); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.staffViewDTO())
}

// =============================================================================
// DRONES
// =============================================================================

func (h *Handler) FleetView(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fleet.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.fleetViewDTO())
}

func (h *Handler) SelectDrone(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.fleet.Select(req.ID)
	writeJSON(w, http.StatusOK, h.fleetViewDTO())
}

func (h *Handler) CreateDrone(w http.ResponseWriter, r *http.Request) {
	var req SaveDroneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var declined string
	if err := h.fleet.Add(r.Context(), droneEditor(req, &declined)); err != nil {
		h.writeFailure(w, err)
		return
	}
	if declined != "" {
		writeError(w, http.StatusBadRequest, declined, nil)
		return
	}
	writeJSON(w, http.StatusCreated, h.fleetViewDTO())
}

func (h *Handler) UpdateDrone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveDroneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fleet.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	var target *fleet.Drone
	for i := range h.fleet.Drones {
		if h.fleet.Drones[i].ID == id {
			target = &h.fleet.Drones[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "Drone not found", nil)
		return
	}
	var declined string
	if err := h.fleet.Edit(r.Context(), target, droneEditor(req, &declined)); err != nil {
		h.writeFailure(w, err)
		return
	}
	if declined != "" {
		writeError(w, http.StatusBadRequest, declined, nil)
		return
	}
	writeJSON(w, http.StatusOK, h.fleetViewDTO())
}

func (h *Handler) DeleteDrone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fleet.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	var target *fleet.Drone
	for i := range h.fleet.Drones {
		if h.fleet.Drones[i].ID == id {
			target = &h.fleet.Drones[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "Drone not found", nil)
		return
	}
	if err := h.fleet.Delete(r.Context(), target); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.fleetViewDTO())
}

// =============================================================================
// EDITORS - edit sessions fed from request bodies
// =============================================================================

func departmentEditor(req SaveDepartmentRequest, declined *string) staff.Editor[staff.Department] {
	return func(current staff.Department) (staff.Department, bool) {
		sess := staff.NewDepartmentSession(current)
		sess.Draft.Name = req.Name
		if !sess.Save() {
			*declined = sess.Message()
			return staff.Department{}, false
		}
		rec, _ := sess.Result()
		return rec, true
	}
}

func employeeEditor(req SaveEmployeeRequest, declined *string) staff.Editor[staff.Employee] {
	return func(current staff.Employee) (staff.Employee, bool) {
		sess := staff.NewEmployeeSession(current)
		sess.Draft.Name = req.Name
		sess.Draft.EmployeeNumber = req.EmployeeNumber
		// Blank means no change; see SaveEmployeeRequest.
		if req.Department != "" {
			sess.Draft.Department = req.Department
		}
		if !sess.Save() {
			*declined = sess.Message()
			return staff.Employee{}, false
		}
		rec, _ := sess.Result()
		return rec, true
	}
}

func familyMemberEditor(req SaveFamilyMemberRequest, declined *string) staff.Editor[staff.FamilyMember] {
	return func(current staff.FamilyMember) (staff.FamilyMember, bool) {
		sess := staff.NewFamilyMemberSession(current)
		sess.Draft.Name = req.Name
		sess.Draft.Relationship = req.Relationship
		sess.Draft.AgeText = req.Age
		if !sess.Save() {
			*declined = sess.Message()
			return staff.FamilyMember{}, false
		}
		rec, _ := sess.Result()
		return rec, true
	}
}

func droneEditor(req SaveDroneRequest, declined *string) fleet.Editor {
	return func(current fleet.Drone) (fleet.Drone, bool) {
		sess := fleet.NewDroneSession(current)
		sess.Draft.Name = req.Name
		sess.Draft.SerialNumber = req.SerialNumber
		sess.Draft.Manufacturer = req.Manufacturer
		if !sess.Save() {
			*declined = sess.Message()
			return fleet.Drone{}, false
		}
		rec, _ := sess.Result()
		return rec, true
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// finishMutation concludes a staff mutation: failure, session decline, or
// the refreshed snapshot.
func (h *Handler) finishMutation(w http.ResponseWriter, r *http.Request, err error, declined string, okStatus int) {
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if declined != "" {
		writeError(w, http.StatusBadRequest, declined, nil)
		return
	}
	writeJSON(w, okStatus, h.staffViewDTO())
}

// findDepartment reloads the view and locates a department by id, writing
// a 404 when it is not visible.
func (h *Handler) findDepartment(w http.ResponseWriter, r *http.Request, id int64) (*staff.Department, bool) {
	if err := h.staff.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	for i := range h.staff.Departments {
		if h.staff.Departments[i].ID == id {
			return &h.staff.Departments[i], true
		}
	}
	writeError(w, http.StatusNotFound, "Department not found", nil)
	return nil, false
}

// findEmployee reloads the view and locates an employee by id within the
// currently visible list, writing a 404 when it is not visible.
func (h *Handler) findEmployee(w http.ResponseWriter, r *http.Request, id int64) (*staff.Employee, bool) {
	if err := h.staff.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	for i := range h.staff.Employees {
		if h.staff.Employees[i].ID == id {
			return &h.staff.Employees[i], true
		}
	}
	writeError(w, http.StatusNotFound, "Employee not found", nil)
	return nil, false
}

func (h *Handler) findFamilyMember(w http.ResponseWriter, r *http.Request, id int64) (*staff.FamilyMember, bool) {
	if err := h.staff.LoadAll(r.Context()); err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	for i := range h.staff.Family {
		if h.staff.Family[i].ID == id {
			return &h.staff.Family[i], true
		}
	}
	writeError(w, http.StatusNotFound, "Family member not found", nil)
	return nil, false
}

func (h *Handler) staffViewDTO() StaffViewDTO {
	dto := StaffViewDTO{
		Departments: make([]DepartmentDTO, len(h.staff.Departments)),
		Employees:   make([]EmployeeDTO, len(h.staff.Employees)),
		Family:      make([]FamilyMemberDTO, len(h.staff.Family)),
	}
	for i, d := range h.staff.Departments {
		dto.Departments[i] = toDepartmentDTO(d)
	}
	for i, e := range h.staff.Employees {
		dto.Employees[i] = toEmployeeDTO(e)
	}
	for i, f := range h.staff.Family {
		dto.Family[i] = toFamilyMemberDTO(f)
	}
	if d := h.staff.SelectedDepartment(); d != nil {
		dto.SelectedDepartmentID = d.ID
	}
	if e := h.staff.SelectedEmployee(); e != nil {
		dto.SelectedEmployeeID = e.ID
	}
	return dto
}

func (h *Handler) fleetViewDTO() FleetViewDTO {
	dto := FleetViewDTO{Drones: make([]DroneDTO, len(h.fleet.Drones))}
	for i, d := range h.fleet.Drones {
		dto.Drones[i] = toDroneDTO(d)
	}
	if d := h.fleet.Selected(); d != nil {
		dto.SelectedDroneID = d.ID
	}
	return dto
}

// writeFailure is the error boundary: it classifies the failure kind,
// logs the technical detail, and sends only the user-presentable summary.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if record.IsBusiness(err) {
		status = http.StatusConflict
	}
	h.log.Error("request failed", "error", err)
	writeJSON(w, status, map[string]any{"error": record.Describe(err)})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]any{"error": message}
	if err != nil {
		resp["detail"] = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
