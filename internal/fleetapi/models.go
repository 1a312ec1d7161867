package fleetapi

import (

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// Page is a list response together with its pagination meta.
type Page[T any] struct {
	Items []T
	Meta  PageMeta
}

type VehicleType string

const (
	VehicleTypeTruck  VehicleType = "truck"
	VehicleTypeMini   VehicleType = "mini"
	VehicleTypeVan    VehicleType = "van"
	VehicleTypeTanker VehicleType = "tanker"
)

type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "available"
	VehicleStatusOnTrip    VehicleStatus = "on_trip"
	VehicleStatusInShop    VehicleStatus = "in_shop"
	VehicleStatusRetired   VehicleStatus = "retired"
)

// Vehicle is a fleet vehicle. Detail responses also carry recent history.
type Vehicle struct {
	ID                 string              `json:"id"`
	RegistrationNumber string              `json:"registration_number"`
	Make               string              `json:"make"`
	Model              string              `json:"model"`
	Type               VehicleType         `json:"type"`
	CapacityKg         float64             `json:"capacity_kg"`
	OdometerKm         float64             `json:"odometer_km"`
	Status             VehicleStatus       `json:"status"`
	FuelEfficiencyKmpl *float64            `json:"fuel_efficiency_kmpl,omitempty"`
	LastServiceDate    *openapi_types.Date `json:"last_service_date,omitempty"`
	NextServiceKm      *float64            `json:"next_service_km,omitempty"`
	CreatedAt          *Timestamp          `json:"created_at,omitempty"`
	MaintenanceHistory []MaintenanceLog    `json:"maintenance_history,omitempty"`
	RecentTrips        []Trip              `json:"recent_trips,omitempty"`
}

// VehicleInput is the body for creating or updating a vehicle. Unset fields are omitted.
type VehicleInput struct {
	RegistrationNumber string              `json:"registration_number,omitempty"`
	Make               string              `json:"make,omitempty"`
	Model              string              `json:"model,omitempty"`
	Type               VehicleType         `json:"type,omitempty"`
	CapacityKg         *float64            `json:"capacity_kg,omitempty"`
	OdometerKm         *float64            `json:"odometer_km,omitempty"`
	FuelEfficiencyKmpl *float64            `json:"fuel_efficiency_kmpl,omitempty"`
	LastServiceDate    *openapi_types.Date `json:"last_service_date,omitempty"`
	NextServiceKm      *float64            `json:"next_service_km,omitempty"`
	Status             VehicleStatus       `json:"status,omitempty"`
}

type DutyStatus string

const (
	DutyStatusAvailable DutyStatus = "available"
	DutyStatusOnTrip    DutyStatus = "on_trip"
	DutyStatusOffDuty   DutyStatus = "off_duty"
	DutyStatusSuspended DutyStatus = "suspended"
)

// Driver is a driver profile.
type Driver struct {
	ID                   string             `json:"id"`
	FullName             string             `json:"full_name"`
	LicenseNumber        string             `json:"license_number"`
	LicenseExpiry        openapi_types.Date `json:"license_expiry"`
	LicenseDaysRemaining int                `json:"license_days_remaining"`
	Phone                *string            `json:"phone,omitempty"`
	SafetyScore          float64            `json:"safety_score"`
	DutyStatus           DutyStatus         `json:"duty_status"`
	TotalTrips           int                `json:"total_trips"`
	TotalKmDriven        float64            `json:"total_km_driven"`
	IncidentsCount       int                `json:"incidents_count"`
	CreatedAt            *Timestamp         `json:"created_at,omitempty"`
	// OnTimeRate is only present in driver performance analytics.
	OnTimeRate *float64 `json:"on_time_rate,omitempty"`
}

// DriverInput is the body for creating or updating a driver.
type DriverInput struct {
	FullName       string              `json:"full_name,omitempty"`
	LicenseNumber  string              `json:"license_number,omitempty"`
	LicenseExpiry  *openapi_types.Date `json:"license_expiry,omitempty"`
	Phone          string              `json:"phone,omitempty"`
	DutyStatus     DutyStatus          `json:"duty_status,omitempty"`
	IncidentsCount *int                `json:"incidents_count,omitempty"`
}

type TripStatus string

const (
	TripStatusPending    TripStatus = "pending"
	TripStatusDispatched TripStatus = "dispatched"
	TripStatusInTransit  TripStatus = "in_transit"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// Trip is a dispatched or planned trip.
type Trip struct {
	ID                 string     `json:"id"`
	VehicleID          string     `json:"vehicle_id"`
	DriverID           string     `json:"driver_id"`
	VehicleReg         *string    `json:"vehicle_reg,omitempty"`
	DriverName         *string    `json:"driver_name,omitempty"`
	CargoWeightKg      float64    `json:"cargo_weight_kg"`
	Origin             string     `json:"origin"`
	Destination        string     `json:"destination"`
	DistanceKm         *float64   `json:"distance_km,omitempty"`
	Status             TripStatus `json:"status"`
	ScheduledDeparture *Timestamp `json:"scheduled_departure,omitempty"`
	ActualDeparture    *Timestamp `json:"actual_departure,omitempty"`
	ActualArrival      *Timestamp `json:"actual_arrival,omitempty"`
	EstimatedFuelCost  *float64   `json:"estimated_fuel_cost,omitempty"`
	ActualFuelCost     *float64   `json:"actual_fuel_cost,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	CreatedAt          *Timestamp `json:"created_at,omitempty"`
}

// TripInput is the body for creating a trip.
type TripInput struct {
	VehicleID          string    `json:"vehicle_id"`
	DriverID           string    `json:"driver_id"`
	CargoWeightKg      float64   `json:"cargo_weight_kg"`
	Origin             string    `json:"origin"`
	Destination        string    `json:"destination"`
	ScheduledDeparture Timestamp `json:"scheduled_departure"`
	DistanceKm         *float64  `json:"distance_km,omitempty"`
	EstimatedFuelCost  *float64  `json:"estimated_fuel_cost,omitempty"`
	Notes              string    `json:"notes,omitempty"`
}

// TripStatusUpdate is the body for PATCH /trips/{id}/status.
type TripStatusUpdate struct {
	Status         TripStatus `json:"status"`
	FinalOdometer  *float64   `json:"final_odometer,omitempty"`
	ActualFuelCost *float64   `json:"actual_fuel_cost,omitempty"`
}

type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "open"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
)

// MaintenanceLog is a service record for a vehicle.
type MaintenanceLog struct {
	ID                string             `json:"id"`
	VehicleID         string             `json:"vehicle_id"`
	VehicleReg        *string            `json:"vehicle_reg,omitempty"`
	ServiceType       string             `json:"service_type"`
	Description       *string            `json:"description,omitempty"`
	Cost              float64            `json:"cost"`
	ServiceDate       openapi_types.Date `json:"service_date"`
	OdometerAtService float64            `json:"odometer_at_service"`
	NextServiceKm     *float64           `json:"next_service_km,omitempty"`
	Status            MaintenanceStatus  `json:"status"`
	CreatedAt         *Timestamp         `json:"created_at,omitempty"`
	VehicleLocked     bool               `json:"vehicle_locked,omitempty"`
	VehicleUnlocked   bool               `json:"vehicle_unlocked,omitempty"`
}

// MaintenanceInput is the body for logging maintenance.
type MaintenanceInput struct {
	VehicleID         string             `json:"vehicle_id"`
	ServiceType       string             `json:"service_type"`
	Description       string             `json:"description,omitempty"`
	Cost              float64            `json:"cost"`
	ServiceDate       openapi_types.Date `json:"service_date"`
	OdometerAtService float64            `json:"odometer_at_service"`
	NextServiceKm     *float64           `json:"next_service_km,omitempty"`
}

type ExpenseType string

const (
	ExpenseTypeFuel      ExpenseType = "fuel"
	ExpenseTypeToll      ExpenseType = "toll"
	ExpenseTypeRepair    ExpenseType = "repair"
	ExpenseTypeInsurance ExpenseType = "insurance"
	ExpenseTypeOther     ExpenseType = "other"
)

// Expense is a cost entry, optionally tied to a trip and driver.
type Expense struct {
	ID                string             `json:"id"`
	TripID            *string            `json:"trip_id,omitempty"`
	VehicleID         string             `json:"vehicle_id"`
	VehicleReg        *string            `json:"vehicle_reg,omitempty"`
	DriverID          *string            `json:"driver_id,omitempty"`
	DriverName        *string            `json:"driver_name,omitempty"`
	ExpenseType       ExpenseType        `json:"expense_type"`
	Amount            float64            `json:"amount"`
	FuelLiters        *float64           `json:"fuel_liters,omitempty"`
	FuelPricePerLiter *float64           `json:"fuel_price_per_liter,omitempty"`
	ExpenseDate       openapi_types.Date `json:"expense_date"`
	Notes             *string            `json:"notes,omitempty"`
	CreatedAt         *Timestamp         `json:"created_at,omitempty"`
}

// ExpenseInput is the body for logging an expense.
type ExpenseInput struct {
	VehicleID         string             `json:"vehicle_id"`
	TripID            string             `json:"trip_id,omitempty"`
	DriverID          string             `json:"driver_id,omitempty"`
	ExpenseType       ExpenseType        `json:"expense_type"`
	Amount            float64            `json:"amount"`
	FuelLiters        *float64           `json:"fuel_liters,omitempty"`
	FuelPricePerLiter *float64           `json:"fuel_price_per_liter,omitempty"`
	ExpenseDate       openapi_types.Date `json:"expense_date"`
	Notes             string             `json:"notes,omitempty"`
}
