package fleetapi

import (
	"context"
	"fmt"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MaintenancePrediction is the backend's service risk estimate for a vehicle.
type MaintenancePrediction struct {
	RiskLevel         RiskLevel `json:"risk_level"`
	Probability       float64   `json:"probability"`
	RecommendedAction string    `json:"recommended_action"`
	EstimatedDays     *int      `json:"estimated_days,omitempty"`
	Reasons           []string  `json:"reasons"`
}

type VehiclePrediction struct {
	VehicleID     string                `json:"vehicle_id"`
	Registration  string                `json:"registration"`
	MakeModel     string                `json:"make_model,omitempty"`
	CurrentStatus VehicleStatus         `json:"current_status,omitempty"`
	Prediction    MaintenancePrediction `json:"prediction"`
}

// FuelForecast holds six months of fuel spend and a three month projection.
type FuelForecast struct {
	Historical []struct {
		Month  string  `json:"month"`
		Actual float64 `json:"actual"`
	} `json:"historical"`
	Forecast []struct {
		Month      string  `json:"month"`
		Predicted  float64 `json:"predicted"`
		LowerBound float64 `json:"lower_bound"`
		UpperBound float64 `json:"upper_bound"`
	} `json:"forecast"`
	Model string  `json:"model"`
	Alpha float64 `json:"alpha"`
}

// DeadAsset is an available vehicle that has been idle too long.
type DeadAsset struct {
	VehicleID      string             `json:"vehicle_id"`
	Registration   string             `json:"registration"`
	MakeModel      string             `json:"make_model"`
	IdleDays       int                `json:"idle_days"`
	LastActivity   openapi_types.Date `json:"last_activity"`
	Recommendation string             `json:"recommendation"`
}

type deadAssetsResult struct {
	DeadAssets []DeadAsset `json:"dead_assets"`
	Count      int         `json:"count"`
}

// FleetPredictions returns predictions for every active vehicle, riskiest first.
func (c *Client) FleetPredictions(ctx context.Context) ([]VehiclePrediction, error) {
	rows, err := get[[]VehiclePrediction](ctx, c, "/ai/maintenance-prediction/fleet/all")
	if err != nil {
		return nil, fmt.Errorf("fetching fleet predictions: %w", err)
	}
	return *rows, nil
}

func (c *Client) VehiclePrediction(ctx context.Context, vehicleID string) (*VehiclePrediction, error) {
	p, err := get[VehiclePrediction](ctx, c, "/ai/maintenance-prediction/"+pathEscape(vehicleID))
	if err != nil {
		return nil, fmt.Errorf("fetching prediction for vehicle %s: %w", vehicleID, err)
	}
	return p, nil
}

func (c *Client) FuelForecast(ctx context.Context) (*FuelForecast, error) {
	f, err := get[FuelForecast](ctx, c, "/ai/fuel-forecast")
	if err != nil {
		return nil, fmt.Errorf("fetching fuel forecast: %w", err)
	}
	return f, nil
}

func (c *Client) DeadAssets(ctx context.Context) ([]DeadAsset, error) {
	r, err := get[deadAssetsResult](ctx, c, "/ai/dead-assets")
	if err != nil {
		return nil, fmt.Errorf("fetching dead assets: %w", err)
	}
	return r.DeadAssets, nil
}
