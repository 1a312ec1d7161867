package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fleetflow-client/internal/app"
	"github.com/florianilch/fleetflow-client/internal/dashboard"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
)

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:   "dashboard",
		Usage:  "print the fleet dashboard",
		Flags:  []cli.Flag{jsonFlag},
		Action: withApp(dashboardAction),
	}
}

func dashboardAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	if err := requireSession(a); err != nil {
		return err
	}

	snap, err := dashboard.Fetch(ctx, a.API())
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if cmd.Bool("json") {
		return printJSON(w, snap)
	}

	k := snap.KPIs
	err = printTable(w, []string{"KPI", "Value"}, [][]string{
		{"Vehicles", strconv.Itoa(k.Fleet.Total)},
		{"On trip", strconv.Itoa(k.Fleet.Active)},
		{"Available", strconv.Itoa(k.Fleet.Available)},
		{"In shop", strconv.Itoa(k.Fleet.InShop)},
		{"Utilization", fmt.Sprintf("%.1f%%", k.Fleet.UtilizationPct)},
		{"Pending trips", strconv.Itoa(k.Trips.Pending)},
		{"In transit", strconv.Itoa(k.Trips.InTransit)},
		{"Completed today", strconv.Itoa(k.Trips.CompletedToday)},
		{"Alerts", strconv.Itoa(k.Alerts.Total)},
		{"Expenses this month", fmt.Sprintf("%.2f", k.Financials.MonthlyExpenses)},
	})
	if err != nil {
		return err
	}
	return printTrips(cmd, snap.LiveTrips)
}

func vehiclesCommand() *cli.Command {
	return &cli.Command{
		Name:  "vehicles",
		Usage: "list vehicles",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "filter by status (available|on_trip|in_shop|retired)"},
			&cli.StringFlag{Name: "type", Usage: "filter by type (truck|mini|van|tanker)"},
			&cli.StringFlag{Name: "search", Usage: "match registration, make or model"},
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "per-page", Value: 20},
			jsonFlag,
		},
		Action: withApp(vehiclesAction),
	}
}

func vehiclesAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	if err := requireSession(a); err != nil {
		return err
	}

	page, err := a.API().ListVehicles(ctx, fleetapi.ListVehiclesParams{
		Page:    cmd.Int("page"),
		PerPage: cmd.Int("per-page"),
		Status:  fleetapi.VehicleStatus(cmd.String("status")),
		Type:    fleetapi.VehicleType(cmd.String("type")),
		Search:  cmd.String("search"),
	})
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if cmd.Bool("json") {
		return printJSON(w, page.Items)
	}

	rows := make([][]string, 0, len(page.Items))
	for _, v := range page.Items {
		rows = append(rows, []string{
			v.RegistrationNumber,
			v.Make + " " + v.Model,
			string(v.Type),
			string(v.Status),
			strconv.FormatFloat(v.OdometerKm, 'f', 0, 64),
			v.ID,
		})
	}
	if err := printTable(w, []string{"Registration", "Vehicle", "Type", "Status", "Odometer km", "ID"}, rows); err != nil {
		return err
	}
	return printPageFooter(cmd, page.Meta)
}

func tripsCommand() *cli.Command {
	return &cli.Command{
		Name:  "trips",
		Usage: "list trips",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "filter by status (pending|dispatched|in_transit|completed|cancelled)"},
			&cli.StringFlag{Name: "search", Usage: "match origin or destination"},
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "per-page", Value: 20},
			jsonFlag,
		},
		Action: withApp(tripsAction),
	}
}

func tripsAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	if err := requireSession(a); err != nil {
		return err
	}

	page, err := a.API().ListTrips(ctx, fleetapi.ListTripsParams{
		Page:    cmd.Int("page"),
		PerPage: cmd.Int("per-page"),
		Status:  fleetapi.TripStatus(cmd.String("status")),
		Search:  cmd.String("search"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return printJSON(stdout(cmd), page.Items)
	}
	if err := printTrips(cmd, page.Items); err != nil {
		return err
	}
	return printPageFooter(cmd, page.Meta)
}

func printTrips(cmd *cli.Command, trips []fleetapi.Trip) error {
	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, []string{
			t.Origin + " → " + t.Destination,
			deref(t.VehicleReg),
			deref(t.DriverName),
			string(t.Status),
			strconv.FormatFloat(t.CargoWeightKg, 'f', 0, 64),
		})
	}
	return printTable(stdout(cmd), []string{"Route", "Vehicle", "Driver", "Status", "Cargo kg"}, rows)
}

func printPageFooter(cmd *cli.Command, meta fleetapi.PageMeta) error {
	if meta.Pages == 0 {
		return nil
	}
	_, err := fmt.Fprintf(stdout(cmd), "Page %d of %d (%d total)\n", meta.Page, meta.Pages, meta.Total)
	return err
}

func predictionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "predictions",
		Usage:     "show maintenance risk predictions",
		ArgsUsage: "[vehicle-id]",
		Flags:     []cli.Flag{jsonFlag},
		Action:    withApp(predictionsAction),
	}
}

func predictionsAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	if err := requireSession(a); err != nil {
		return err
	}

	var predictions []fleetapi.VehiclePrediction
	if id := cmd.Args().First(); id != "" {
		p, err := a.API().VehiclePrediction(ctx, id)
		if err != nil {
			return err
		}
		predictions = []fleetapi.VehiclePrediction{*p}
	} else {
		var err error
		predictions, err = a.API().FleetPredictions(ctx)
		if err != nil {
			return err
		}
	}

	w := stdout(cmd)
	if cmd.Bool("json") {
		return printJSON(w, predictions)
	}

	rows := make([][]string, 0, len(predictions))
	for _, p := range predictions {
		days := "-"
		if p.Prediction.EstimatedDays != nil {
			days = strconv.Itoa(*p.Prediction.EstimatedDays)
		}
		rows = append(rows, []string{
			p.Registration,
			string(p.Prediction.RiskLevel),
			fmt.Sprintf("%.0f%%", p.Prediction.Probability*100),
			days,
			p.Prediction.RecommendedAction,
		})
	}
	return printTable(w, []string{"Vehicle", "Risk", "Probability", "Days", "Action"}, rows)
}
