package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fleetflow-client/internal/app"
	"github.com/florianilch/fleetflow-client/internal/credentials"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
	"github.com/florianilch/fleetflow-client/internal/session"
)

var errNotLoggedIn = errors.New("not logged in, run `fleetflow login` first")

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "account username"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "account password (prompted when omitted)"},
		},
		Action: withApp(loginAction),
	}
}

func loginAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	p := newPrompter(cmd)
	username, err := valueOrPrompt(cmd, p, "username", "Username: ", false)
	if err != nil {
		return err
	}
	password, err := valueOrPrompt(cmd, p, "password", "Password: ", true)
	if err != nil {
		return err
	}

	user, err := a.Sessions().Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", fleetapi.Message(err))
	}
	_, err = fmt.Fprintf(stdout(cmd), "Logged in as %s (%s)\n", user.Username, user.Role)
	return err
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account and log into it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "account username"},
			&cli.StringFlag{Name: "email", Usage: "account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "account password (prompted when omitted)"},
			&cli.StringFlag{Name: "role", Usage: "requested role (admin|dispatcher|driver|viewer)"},
		},
		Action: withApp(registerAction),
	}
}

func registerAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	p := newPrompter(cmd)
	username, err := valueOrPrompt(cmd, p, "username", "Username: ", false)
	if err != nil {
		return err
	}
	email, err := valueOrPrompt(cmd, p, "email", "Email: ", false)
	if err != nil {
		return err
	}
	password, err := valueOrPrompt(cmd, p, "password", "Password: ", true)
	if err != nil {
		return err
	}

	user, err := a.Sessions().Register(ctx, fleetapi.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     fleetapi.Role(cmd.String("role")),
	})
	if err != nil {
		return fmt.Errorf("registration failed: %s", fleetapi.Message(err))
	}
	_, err = fmt.Fprintf(stdout(cmd), "Registered and logged in as %s (%s)\n", user.Username, user.Role)
	return err
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			a.Sessions().Logout(ctx)
			_, err := fmt.Fprintln(stdout(cmd), "Logged out")
			return err
		}),
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show the current session",
		Flags:  []cli.Flag{jsonFlag},
		Action: withApp(statusAction),
	}
}

// sessionStatus is what `status` reports. Tokens themselves are never printed.
type sessionStatus struct {
	State         string                 `json:"state"`
	User          *credentials.Principal `json:"user,omitempty"`
	AccessExpiry  *time.Time             `json:"access_token_expires_at,omitempty"`
	RefreshExpiry *time.Time             `json:"refresh_token_expires_at,omitempty"`
}

func statusAction(_ context.Context, cmd *cli.Command, a *app.App) error {
	st := sessionStatus{State: a.Sessions().State().String(), User: a.Sessions().User()}
	if current, ok := a.Store().Get(); ok {
		if exp, ok := credentials.TokenExpiry(current.AccessToken); ok {
			st.AccessExpiry = &exp
		}
		if exp, ok := credentials.TokenExpiry(current.RefreshToken); ok {
			st.RefreshExpiry = &exp
		}
	}

	w := stdout(cmd)
	if cmd.Bool("json") {
		return printJSON(w, st)
	}

	if a.Sessions().State() != session.Authenticated {
		_, err := fmt.Fprintln(w, "Not logged in")
		return err
	}

	rows := [][]string{}
	if st.User != nil {
		rows = append(rows, []string{"User", st.User.Username}, []string{"Role", st.User.Role})
	}
	rows = append(rows,
		[]string{"Access token expires", formatExpiry(st.AccessExpiry)},
		[]string{"Refresh token expires", formatExpiry(st.RefreshExpiry)},
	)
	return printTable(w, []string{"Session", ""}, rows)
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	if d := time.Until(*t); d > 0 {
		return fmt.Sprintf("%s (in %s)", t.Local().Format(time.DateTime), d.Round(time.Second))
	}
	return t.Local().Format(time.DateTime) + " (expired)"
}

// requireSession fails fast instead of sending a request the backend will reject.
func requireSession(a *app.App) error {
	if a.Sessions().State() != session.Authenticated {
		return errNotLoggedIn
	}
	return nil
}
