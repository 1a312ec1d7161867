package fleetapi

import (
	"context"
	"fmt"
)

// MaxSummaryMonths is the largest window the backend will summarize.
const MaxSummaryMonths = 24

// MonthlySummary is one month of the financial summary.
type MonthlySummary struct {
	Month          string  `json:"month"`
	MonthShort     string  `json:"month_short"`
	TotalCost      float64 `json:"total_cost"`
	FuelCost       float64 `json:"fuel_cost"`
	RepairCost     float64 `json:"repair_cost"`
	TripsCompleted int     `json:"trips_completed"`
}

// VehicleROI is the estimated return for one vehicle.
type VehicleROI struct {
	VehicleID        string      `json:"vehicle_id"`
	Registration     string      `json:"registration"`
	MakeModel        string      `json:"make_model"`
	Type             VehicleType `json:"type"`
	TotalCost        float64     `json:"total_cost"`
	EstimatedRevenue float64     `json:"estimated_revenue"`
	NetROI           float64     `json:"net_roi"`
	TripsCompleted   int         `json:"trips_completed"`
	TotalDistanceKm  float64     `json:"total_distance_km"`
	CostPerKm        *float64    `json:"cost_per_km,omitempty"`
}

type FuelEfficiency struct {
	Registration   string      `json:"registration"`
	MakeModel      string      `json:"make_model"`
	EfficiencyKmpl float64     `json:"efficiency_kmpl"`
	Type           VehicleType `json:"type"`
}

// FinancialSummary returns per-month costs for the last months, oldest first.
// Zero lets the backend pick its default window.
func (c *Client) FinancialSummary(ctx context.Context, months int) ([]MonthlySummary, error) {
	if months < 0 || months > MaxSummaryMonths {
		return nil, fmt.Errorf("months must be between 0 and %d, got %d", MaxSummaryMonths, months)
	}

	rows, err := get[[]MonthlySummary](ctx, c, "/analytics/summary", queryParam{"months", months})
	if err != nil {
		return nil, fmt.Errorf("fetching financial summary: %w", err)
	}
	return *rows, nil
}

// VehicleROI returns vehicles ordered by net ROI, best first.
func (c *Client) VehicleROI(ctx context.Context) ([]VehicleROI, error) {
	rows, err := get[[]VehicleROI](ctx, c, "/analytics/vehicle-roi")
	if err != nil {
		return nil, fmt.Errorf("fetching vehicle ROI: %w", err)
	}
	return *rows, nil
}

func (c *Client) FuelEfficiency(ctx context.Context) ([]FuelEfficiency, error) {
	rows, err := get[[]FuelEfficiency](ctx, c, "/analytics/fuel-efficiency")
	if err != nil {
		return nil, fmt.Errorf("fetching fuel efficiency: %w", err)
	}
	return *rows, nil
}

// DriverPerformance returns drivers ordered by safety score, with OnTimeRate set.
func (c *Client) DriverPerformance(ctx context.Context) ([]Driver, error) {
	rows, err := get[[]Driver](ctx, c, "/analytics/driver-performance")
	if err != nil {
		return nil, fmt.Errorf("fetching driver performance: %w", err)
	}
	return *rows, nil
}
