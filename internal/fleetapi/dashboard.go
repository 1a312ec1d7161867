package fleetapi

import (
	"context"
	"fmt"
	"net/http"
)

// KPIs is the dashboard headline figures.
type KPIs struct {
	Fleet struct {
		Total          int     `json:"total"`
		Active         int     `json:"active"`
		Available      int     `json:"available"`
		InShop         int     `json:"in_shop"`
		UtilizationPct float64 `json:"utilization_pct"`
	} `json:"fleet"`
	Alerts struct {
		Total           int `json:"total"`
		InShop          int `json:"in_shop"`
		LicenseExpiring int `json:"license_expiring"`
		LicenseExpired  int `json:"license_expired"`
		ServiceDue      int `json:"service_due"`
	} `json:"alerts"`
	Trips struct {
		Pending        int `json:"pending"`
		InTransit      int `json:"in_transit"`
		CompletedToday int `json:"completed_today"`
	} `json:"trips"`
	Financials struct {
		MonthlyExpenses float64 `json:"monthly_expenses"`
		MonthlyFuel     float64 `json:"monthly_fuel"`
	} `json:"financials"`
}

// RecentActivity is the latest trips and maintenance entries.
type RecentActivity struct {
	RecentTrips       []Trip           `json:"recent_trips"`
	RecentMaintenance []MaintenanceLog `json:"recent_maintenance"`
}

// KPIs returns the dashboard headline figures.
func (c *Client) KPIs(ctx context.Context) (*KPIs, error) {
	var kpis KPIs
	if _, err := c.do(ctx, http.MethodGet, "/dashboard/kpis", nil, nil, &kpis); err != nil {
		return nil, fmt.Errorf("fetching KPIs: %w", err)
	}
	return &kpis, nil
}

// LiveTrips returns trips that are pending, dispatched or in transit.
func (c *Client) LiveTrips(ctx context.Context) ([]Trip, error) {
	var trips []Trip
	if _, err := c.do(ctx, http.MethodGet, "/dashboard/live-trips", nil, nil, &trips); err != nil {
		return nil, fmt.Errorf("fetching live trips: %w", err)
	}
	return trips, nil
}

// RecentActivity returns the latest trips and maintenance entries.
func (c *Client) RecentActivity(ctx context.Context) (*RecentActivity, error) {
	var activity RecentActivity
	if _, err := c.do(ctx, http.MethodGet, "/dashboard/recent-activity", nil, nil, &activity); err != nil {
		return nil, fmt.Errorf("fetching recent activity: %w", err)
	}
	return &activity, nil
}
