package fleetapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListVehiclesParams filters GET /vehicles/.
type ListVehiclesParams struct {
	Page    int
	PerPage int
	Status  VehicleStatus
	Type    VehicleType
	Search  string
}

func (c *Client) ListVehicles(ctx context.Context, params ListVehiclesParams) (*Page[Vehicle], error) {
	page, err := list[Vehicle](ctx, c, "/vehicles/",
		queryParam{"page", params.Page},
		queryParam{"per_page", params.PerPage},
		queryParam{"status", params.Status},
		queryParam{"type", params.Type},
		queryParam{"search", params.Search},
	)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	return page, nil
}

// GetVehicle returns a vehicle with its maintenance history and recent trips.
func (c *Client) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	v, err := get[Vehicle](ctx, c, "/vehicles/"+pathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetching vehicle %s: %w", id, err)
	}
	return v, nil
}

func (c *Client) CreateVehicle(ctx context.Context, input VehicleInput) (*Vehicle, error) {
	v, err := send[Vehicle](ctx, c, http.MethodPost, "/vehicles/", input)
	if err != nil {
		return nil, fmt.Errorf("creating vehicle: %w", err)
	}
	return v, nil
}

func (c *Client) UpdateVehicle(ctx context.Context, id string, input VehicleInput) (*Vehicle, error) {
	v, err := send[Vehicle](ctx, c, http.MethodPut, "/vehicles/"+pathEscape(id), input)
	if err != nil {
		return nil, fmt.Errorf("updating vehicle %s: %w", id, err)
	}
	return v, nil
}

// DeleteVehicle removes a vehicle. The backend refuses vehicles that are on a trip.
func (c *Client) DeleteVehicle(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/vehicles/"+pathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting vehicle %s: %w", id, err)
	}
	return nil
}
