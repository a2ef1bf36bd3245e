/*
handlers_test.go - HTTP surface tests

Exercises the router end to end against in-memory stores: snapshot
loading, selection changes, the session-backed mutation path, and the
status mapping of the failure kinds.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffdesk/fleet"
	"github.com/warp/staffdesk/staff"
	"github.com/warp/staffdesk/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	staffStore := sqlite.NewStaffStore(":memory:")
	t.Cleanup(func() { staffStore.Close() })
	fleetStore := sqlite.NewFleetStore(":memory:")
	t.Cleanup(func() { fleetStore.Close() })

	h := NewHandler(staff.NewViewState(staffStore), fleet.NewViewState(fleetStore), nil)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	return resp, fields
}

func staffView(t *testing.T, fields map[string]json.RawMessage) StaffViewDTO {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	var dto StaffViewDTO
	require.NoError(t, json.Unmarshal(raw, &dto))
	return dto
}

func errorMessage(t *testing.T, fields map[string]json.RawMessage) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal(fields["error"], &msg))
	return msg
}

// =============================================================================
// SNAPSHOTS AND SELECTION
// =============================================================================

func TestStaffView_ReturnsSeededSnapshot(t *testing.T) {
	// GIVEN: A fresh server over empty databases
	srv := newTestServer(t)

	// WHEN: Fetching the staff view
	resp, fields := doJSON(t, http.MethodGet, srv.URL+"/api/staff/view", nil)

	// THEN: The seed data is visible with the first records selected
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := staffView(t, fields)
	assert.Len(t, view.Departments, 3)
	assert.Equal(t, "人事部", view.Departments[0].Name)
	require.Len(t, view.Employees, 1)
	assert.Equal(t, view.Departments[0].ID, view.SelectedDepartmentID)
	assert.Equal(t, view.Employees[0].ID, view.SelectedEmployeeID)
	assert.Len(t, view.Family, 2)
}

func TestSelectDepartment_NarrowsEmployees(t *testing.T) {
	// GIVEN: A loaded view
	srv := newTestServer(t)
	_, fields := doJSON(t, http.MethodGet, srv.URL+"/api/staff/view", nil)
	view := staffView(t, fields)

	var devID int64
	for _, d := range view.Departments {
		if d.Name == "開発部" {
			devID = d.ID
		}
	}
	require.NotZero(t, devID)

	// WHEN: Selecting 開発部
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/api/staff/view/department", SelectRequest{ID: devID})

	// THEN: One employee, no employee selection, no family rows
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = staffView(t, fields)
	require.Len(t, view.Employees, 1)
	assert.Equal(t, "EMP-002", view.Employees[0].EmployeeNumber)
	assert.Zero(t, view.SelectedEmployeeID)
	assert.Empty(t, view.Family)
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestCreateEmployee_ThenDelete(t *testing.T) {
	// GIVEN: A loaded view
	srv := newTestServer(t)

	// WHEN: Creating an employee
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/api/staff/employees", SaveEmployeeRequest{
		Name:           "田中 実",
		EmployeeNumber: "EMP-099",
		Department:     "人事部",
	})

	// THEN: 201 with the refreshed snapshot containing the record
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	view := staffView(t, fields)

	var created EmployeeDTO
	for _, e := range view.Employees {
		if e.EmployeeNumber == "EMP-099" {
			created = e
		}
	}
	require.NotZero(t, created.ID)
	assert.NotEmpty(t, created.UpdatedAt)

	// WHEN: Deleting it again
	resp, fields = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/staff/employees/%d", srv.URL, created.ID), nil)

	// THEN: The snapshot no longer lists it
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = staffView(t, fields)
	for _, e := range view.Employees {
		assert.NotEqual(t, "EMP-099", e.EmployeeNumber)
	}
}

func TestUpdateEmployee_BlankDepartmentKeepsCurrent(t *testing.T) {
	// GIVEN: The auto-selected view with one visible employee in 人事部
	srv := newTestServer(t)
	_, fields := doJSON(t, http.MethodGet, srv.URL+"/api/staff/view", nil)
	view := staffView(t, fields)
	require.Len(t, view.Employees, 1)
	target := view.Employees[0]
	require.Equal(t, "人事部", target.Department)

	// WHEN: Renaming it with the department field left blank
	resp, fields := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/staff/employees/%d", srv.URL, target.ID),
		SaveEmployeeRequest{Name: "中村 健二", EmployeeNumber: target.EmployeeNumber})

	// THEN: The name changed, the department did not
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = staffView(t, fields)
	var got EmployeeDTO
	for _, e := range view.Employees {
		if e.ID == target.ID {
			got = e
		}
	}
	require.NotZero(t, got.ID)
	assert.Equal(t, "中村 健二", got.Name)
	assert.Equal(t, "人事部", got.Department)
}

func TestCreateDepartment_BlankNameIs400(t *testing.T) {
	// GIVEN: A server
	srv := newTestServer(t)

	// WHEN: Posting a whitespace-only name
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/api/staff/departments", SaveDepartmentRequest{Name: "   "})

	// THEN: The session's validation message comes back as a 400
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "部署名は必須です。", errorMessage(t, fields))
}

func TestCreateFamilyMember_BadAgeIs400(t *testing.T) {
	// GIVEN: A loaded view with an employee auto-selected
	srv := newTestServer(t)
	_, _ = doJSON(t, http.MethodGet, srv.URL+"/api/staff/view", nil)

	// WHEN: Posting a non-numeric age
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/api/staff/family", SaveFamilyMemberRequest{
		Name:         "中村 蓮",
		Relationship: "子",
		Age:          "abc",
	})

	// THEN: The age validation message, not a JSON decoding error
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "年齢は0以上の整数で入力してください。", errorMessage(t, fields))
}

func TestCreateFamilyMember_NoSelectionIs409(t *testing.T) {
	// GIVEN: A view whose employee selection has been cleared by a
	// department change
	srv := newTestServer(t)
	_, fields := doJSON(t, http.MethodGet, srv.URL+"/api/staff/view", nil)
	view := staffView(t, fields)

	var devID int64
	for _, d := range view.Departments {
		if d.Name == "開発部" {
			devID = d.ID
		}
	}
	_, _ = doJSON(t, http.MethodPost, srv.URL+"/api/staff/view/department", SelectRequest{ID: devID})

	// WHEN: Adding a family member with no employee selected
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/api/staff/family", SaveFamilyMemberRequest{
		Name:         "誰か",
		Relationship: "子",
		Age:          "1",
	})

	// THEN: The business-rule violation maps to 409
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "家族を追加する従業員を選択してください。", errorMessage(t, fields))
}

func TestUpdateDepartment_UnknownIDIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/staff/departments/99999", SaveDepartmentRequest{Name: "幻の部署"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteDepartment_CascadesThroughView(t *testing.T) {
	// GIVEN: The seeded view
	srv := newTestServer(t)
	_, fields := doJSON(t, http.MethodGet, srv.URL+"/api/staff/view", nil)
	view := staffView(t, fields)

	var salesID int64
	for _, d := range view.Departments {
		if d.Name == "営業部" {
			salesID = d.ID
		}
	}
	require.NotZero(t, salesID)

	// WHEN: Deleting 営業部
	resp, fields := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/staff/departments/%d", srv.URL, salesID), nil)

	// THEN: The refreshed snapshot has two departments and EMP-001 is gone
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = staffView(t, fields)
	assert.Len(t, view.Departments, 2)
	for _, e := range view.Employees {
		assert.NotEqual(t, "EMP-001", e.EmployeeNumber)
	}
}

// =============================================================================
// FLEET
// =============================================================================

func TestFleetView_CRUDRoundTrip(t *testing.T) {
	// GIVEN: A server with the seeded fleet
	srv := newTestServer(t)

	resp, fields := doJSON(t, http.MethodGet, srv.URL+"/api/fleet/view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view FleetViewDTO
	raw, _ := json.Marshal(fields)
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Len(t, view.Drones, 3)

	// WHEN: Creating a drone with a blank serial
	resp, fields = doJSON(t, http.MethodPost, srv.URL+"/api/fleet/drones", SaveDroneRequest{Name: "新型機"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "名前とシリアル番号は必須です。", errorMessage(t, fields))

	// AND: Creating a valid one
	resp, fields = doJSON(t, http.MethodPost, srv.URL+"/api/fleet/drones", SaveDroneRequest{
		Name:         "点検機デルタ",
		SerialNumber: "DRN-010",
		Manufacturer: "エアロ技研",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, _ = json.Marshal(fields)
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Len(t, view.Drones, 4)

	var created DroneDTO
	for _, d := range view.Drones {
		if d.SerialNumber == "DRN-010" {
			created = d
		}
	}
	require.NotZero(t, created.ID)

	// WHEN: Deleting it
	resp, fields = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/fleet/drones/%d", srv.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, _ = json.Marshal(fields)
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Len(t, view.Drones, 3)
}
