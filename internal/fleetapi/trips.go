package fleetapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListTripsParams filters GET /trips/.
type ListTripsParams struct {
	Page    int
	PerPage int
	Status  TripStatus
	Search  string
}

func (c *Client) ListTrips(ctx context.Context, params ListTripsParams) (*Page[Trip], error) {
	page, err := list[Trip](ctx, c, "/trips/",
		queryParam{"page", params.Page},
		queryParam{"per_page", params.PerPage},
		queryParam{"status", params.Status},
		queryParam{"search", params.Search},
	)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return page, nil
}

func (c *Client) GetTrip(ctx context.Context, id string) (*Trip, error) {
	t, err := get[Trip](ctx, c, "/trips/"+pathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetching trip %s: %w", id, err)
	}
	return t, nil
}

// CreateTrip plans a trip. Capacity and availability rules are enforced by the backend
// and surface as ErrValidation or ErrConflict.
func (c *Client) CreateTrip(ctx context.Context, input TripInput) (*Trip, error) {
	t, err := send[Trip](ctx, c, http.MethodPost, "/trips/", input)
	if err != nil {
		return nil, fmt.Errorf("creating trip: %w", err)
	}
	return t, nil
}

// UpdateTripStatus moves a trip through its lifecycle.
func (c *Client) UpdateTripStatus(ctx context.Context, id string, update TripStatusUpdate) (*Trip, error) {
	t, err := send[Trip](ctx, c, http.MethodPatch, "/trips/"+pathEscape(id)+"/status", update)
	if err != nil {
		return nil, fmt.Errorf("updating trip %s status: %w", id, err)
	}
	return t, nil
}
