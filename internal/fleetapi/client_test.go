package fleetapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded captures the last request the test server saw.
type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api/v1/")
	require.NoError(t, err)
	return c, rec
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"valid", "https://fleet.example.com/api/v1", false},
		{"trailing slash", "http://localhost:5000/api/v1/", false},
		{"missing scheme", "fleet.example.com/api/v1", true},
		{"empty", "", true},
		{"unparsable", "http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, '/', c.baseURL[len(c.baseURL)-1])
		})
	}
}

func TestLogin(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success","data":{
		"access_token":"acc","refresh_token":"ref",
		"user":{"id":"u1","username":"ana","email":"ana@example.com","role":"dispatcher","is_active":true,"last_login":"2025-03-01T08:15:30.123456"}}}`)

	res, err := c.Login(context.Background(), LoginRequest{Username: "ana", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/auth/login", rec.path)
	assert.JSONEq(t, `{"username":"ana","password":"secret"}`, rec.body)
	assert.Empty(t, rec.auth)

	assert.Equal(t, "acc", res.AccessToken)
	assert.Equal(t, "ref", res.RefreshToken)
	assert.Equal(t, RoleDispatcher, res.User.Role)
	require.NotNil(t, res.User.LastLogin)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 15, 30, 123456000, time.UTC), res.User.LastLogin.Time)
}

func TestLoginRejected(t *testing.T) {
	c, _ := newTestClient(t, http.StatusUnauthorized,
		`{"status":"error","code":"INVALID_CREDENTIALS","message":"Invalid username or password."}`)

	_, err := c.Login(context.Background(), LoginRequest{Username: "ana", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid username or password.", Message(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestLoginMissingTokens(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"status":"success","data":{"access_token":"acc","user":{}}}`)

	_, err := c.Login(context.Background(), LoginRequest{Username: "ana", Password: "secret"})
	assert.ErrorContains(t, err, "missing tokens")
}

func TestRegisterConflict(t *testing.T) {
	c, rec := newTestClient(t, http.StatusConflict, `{"status":"error","message":"Username already taken."}`)

	_, err := c.Register(context.Background(), RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Username already taken.", Message(err))
	assert.JSONEq(t, `{"username":"ana","email":"ana@example.com","password":"secret1"}`, rec.body)
}

func TestRefreshUsesRefreshToken(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success","data":{"access_token":"new-access"}}`)

	token, err := c.Refresh(context.Background(), "the-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, "Bearer the-refresh-token", rec.auth)
	assert.Equal(t, "/api/v1/auth/refresh", rec.path)
	assert.Empty(t, rec.body)
}

func TestRefreshEmptyToken(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"status":"success","data":{}}`)

	_, err := c.Refresh(context.Background(), "ref")
	assert.Error(t, err)
}

func TestListVehicles(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success",
		"data":[{"id":"v1","registration_number":"MH12AB1234","type":"truck","status":"available","capacity_kg":12000,"last_service_date":"2025-01-10"}],
		"meta":{"page":2,"per_page":10,"total":11,"pages":2,"has_next":false,"has_prev":true}}`)

	page, err := c.ListVehicles(context.Background(), ListVehiclesParams{
		Page:    2,
		PerPage: 10,
		Status:  VehicleStatusAvailable,
		Search:  "MH12",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/vehicles/", rec.path)
	assert.Equal(t, "page=2&per_page=10&search=MH12&status=available", rec.query)

	require.Len(t, page.Items, 1)
	v := page.Items[0]
	assert.Equal(t, VehicleTypeTruck, v.Type)
	assert.InDelta(t, 12000, v.CapacityKg, 0.001)
	require.NotNil(t, v.LastServiceDate)
	assert.Equal(t, "2025-01-10", v.LastServiceDate.Format(openapi_types.DateFormat))
	assert.Equal(t, PageMeta{Page: 2, PerPage: 10, Total: 11, Pages: 2, HasPrev: true}, page.Meta)
}

func TestListSkipsZeroParams(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success","data":[]}`)

	page, err := c.ListTrips(context.Background(), ListTripsParams{})
	require.NoError(t, err)
	assert.Empty(t, rec.query)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Meta)
}

func TestListExpensesDates(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success","data":[]}`)

	start := openapi_types.Date{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	end := openapi_types.Date{Time: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}
	_, err := c.ListExpenses(context.Background(), ListExpensesParams{
		Type:      ExpenseTypeFuel,
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, "end_date=2025-01-31&start_date=2025-01-01&type=fuel", rec.query)
}

func TestCreateTripValidation(t *testing.T) {
	c, rec := newTestClient(t, http.StatusUnprocessableEntity,
		`{"status":"error","message":"Cargo weight 15000kg exceeds vehicle capacity 12000kg."}`)

	_, err := c.CreateTrip(context.Background(), TripInput{
		VehicleID:     "v1",
		DriverID:      "d1",
		CargoWeightKg: 15000,
		Origin:        "Pune",
		Destination:   "Mumbai",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Cargo weight 15000kg exceeds vehicle capacity 12000kg.", Message(err))
	assert.Equal(t, http.MethodPost, rec.method)
}

func TestUpdateTripStatus(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK,
		`{"status":"success","data":{"id":"t 1","status":"completed","actual_arrival":"2025-03-01T17:00:00+05:30"}}`)

	odo := 120500.0
	trip, err := c.UpdateTripStatus(context.Background(), "t 1", TripStatusUpdate{Status: TripStatusCompleted, FinalOdometer: &odo})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/v1/trips/t 1/status", rec.path)
	assert.JSONEq(t, `{"status":"completed","final_odometer":120500}`, rec.body)
	assert.Equal(t, TripStatusCompleted, trip.Status)
	require.NotNil(t, trip.ActualArrival)
	assert.Equal(t, time.Date(2025, 3, 1, 11, 30, 0, 0, time.UTC), trip.ActualArrival.UTC())
}

func TestDeleteVehicleNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, `{"status":"error","message":"Vehicle not found."}`)

	err := c.DeleteVehicle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrorWithoutEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := c.KPIs(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "request failed with status 502", apiErr.Error())
}

func TestFinancialSummary(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success","data":[
		{"month":"Feb 2025","month_short":"Feb","total_cost":1200.5,"fuel_cost":800,"repair_cost":0,"trips_completed":14}]}`)

	rows, err := c.FinancialSummary(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "months=12", rec.query)
	require.Len(t, rows, 1)
	assert.Equal(t, 14, rows[0].TripsCompleted)

	_, err = c.FinancialSummary(context.Background(), MaxSummaryMonths+1)
	assert.Error(t, err)
}

func TestDeadAssets(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"status":"success","data":{"count":1,"dead_assets":[
		{"vehicle_id":"v9","registration":"KA01","make_model":"Tata Ace","idle_days":21,"last_activity":"2025-02-01","recommendation":"Review utilization or reallocate"}]}}`)

	assets, err := c.DeadAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/ai/dead-assets", rec.path)
	require.Len(t, assets, 1)
	assert.Equal(t, 21, assets[0].IdleDays)
}

func TestRequestEditorError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"status":"success","data":{}}`)

	boom := errors.New("boom")
	_, err := c.do(context.Background(), http.MethodGet, "/auth/me", nil, nil, nil,
		func(context.Context, *http.Request) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{`"2025-03-01T08:15:30"`, time.Date(2025, 3, 1, 8, 15, 30, 0, time.UTC), false},
		{`"2025-03-01T08:15"`, time.Date(2025, 3, 1, 8, 15, 0, 0, time.UTC), false},
		{`"2025-03-01T08:15:30Z"`, time.Date(2025, 3, 1, 8, 15, 30, 0, time.UTC), false},
		{`null`, time.Time{}, false},
		{`"yesterday"`, time.Time{}, true},
		{`12345`, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			err := ts.UnmarshalJSON([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}
