package fleetapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListDriversParams filters GET /drivers/.
type ListDriversParams struct {
	Page   int
	Status DutyStatus
	Search string
}

func (c *Client) ListDrivers(ctx context.Context, params ListDriversParams) (*Page[Driver], error) {
	page, err := list[Driver](ctx, c, "/drivers/",
		queryParam{"page", params.Page},
		queryParam{"status", params.Status},
		queryParam{"search", params.Search},
	)
	if err != nil {
		return nil, fmt.Errorf("listing drivers: %w", err)
	}
	return page, nil
}

func (c *Client) GetDriver(ctx context.Context, id string) (*Driver, error) {
	d, err := get[Driver](ctx, c, "/drivers/"+pathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetching driver %s: %w", id, err)
	}
	return d, nil
}

func (c *Client) CreateDriver(ctx context.Context, input DriverInput) (*Driver, error) {
	d, err := send[Driver](ctx, c, http.MethodPost, "/drivers/", input)
	if err != nil {
		return nil, fmt.Errorf("creating driver: %w", err)
	}
	return d, nil
}

func (c *Client) UpdateDriver(ctx context.Context, id string, input DriverInput) (*Driver, error) {
	d, err := send[Driver](ctx, c, http.MethodPut, "/drivers/"+pathEscape(id), input)
	if err != nil {
		return nil, fmt.Errorf("updating driver %s: %w", id, err)
	}
	return d, nil
}
