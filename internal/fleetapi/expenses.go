package fleetapi

import (
	"context"
	"fmt"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ListExpensesParams filters GET /expenses/. Dates are inclusive.
type ListExpensesParams struct {
	Page      int
	VehicleID string
	Type      ExpenseType
	StartDate *openapi_types.Date
	EndDate   *openapi_types.Date
}

func (c *Client) ListExpenses(ctx context.Context, params ListExpensesParams) (*Page[Expense], error) {
	qp := []queryParam{
		{"page", params.Page},
		{"vehicle_id", params.VehicleID},
		{"type", params.Type},
	}
	if params.StartDate != nil {
		qp = append(qp, queryParam{"start_date", params.StartDate.Format(openapi_types.DateFormat)})
	}
	if params.EndDate != nil {
		qp = append(qp, queryParam{"end_date", params.EndDate.Format(openapi_types.DateFormat)})
	}

	page, err := list[Expense](ctx, c, "/expenses/", qp...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return page, nil
}

func (c *Client) LogExpense(ctx context.Context, input ExpenseInput) (*Expense, error) {
	e, err := send[Expense](ctx, c, http.MethodPost, "/expenses/", input)
	if err != nil {
		return nil, fmt.Errorf("logging expense: %w", err)
	}
	return e, nil
}
