package fleetapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListMaintenanceParams filters GET /maintenance/.
type ListMaintenanceParams struct {
	Page      int
	VehicleID string
	Status    MaintenanceStatus
}

func (c *Client) ListMaintenance(ctx context.Context, params ListMaintenanceParams) (*Page[MaintenanceLog], error) {
	page, err := list[MaintenanceLog](ctx, c, "/maintenance/",
		queryParam{"page", params.Page},
		queryParam{"vehicle_id", params.VehicleID},
		queryParam{"status", params.Status},
	)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance logs: %w", err)
	}
	return page, nil
}

// LogMaintenance records a service. The backend moves the vehicle into the shop.
func (c *Client) LogMaintenance(ctx context.Context, input MaintenanceInput) (*MaintenanceLog, error) {
	m, err := send[MaintenanceLog](ctx, c, http.MethodPost, "/maintenance/", input)
	if err != nil {
		return nil, fmt.Errorf("logging maintenance: %w", err)
	}
	return m, nil
}

func (c *Client) CompleteMaintenance(ctx context.Context, id string) (*MaintenanceLog, error) {
	m, err := send[MaintenanceLog](ctx, c, http.MethodPatch, "/maintenance/"+pathEscape(id)+"/complete", nil)
	if err != nil {
		return nil, fmt.Errorf("completing maintenance %s: %w", id, err)
	}
	return m, nil
}
