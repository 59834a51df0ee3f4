package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"drp/internal/apiclient"
	"drp/internal/filter"
	"drp/internal/listview"
)

// App is the interactive admin console. It holds one API client, the saved
// token, and a controller-backed view per entity; "use <entity>" switches the
// active view.
type App struct {
	api     *apiclient.Client
	tokens  apiclient.TokenStore
	reader  *bufio.Reader
	out     io.Writer
	views   map[string]view
	current view
	user    string
}

func NewApp(serverURL string, tokens apiclient.TokenStore) *App {
	api := apiclient.New(serverURL, tokens)
	views := map[string]view{}
	for _, v := range []view{paperView(api), materialView(api), supplierView(api), invoiceView(api), dispatchView(api)} {
		views[v.Name()] = v
	}
	return &App{
		api:     api,
		tokens:  tokens,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		views:   views,
		current: views["papers"],
	}
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "drpctl - type help for commands")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) status() string {
	if a.user == "" {
		return "not logged in"
	}
	return a.user + " / " + a.current.Name()
}

func (a *App) isLoggedIn() bool {
	tok, err := a.tokens.Token()
	return err == nil && tok != ""
}

// Login authenticates against /auth/login and saves the bearer token.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	raw, err := a.api.Post(ctx, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		fmt.Fprintln(a.out, "login failed:", err)
		return err
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	// The auth endpoints respond without the data envelope.
	if err := json.Unmarshal(raw, &resp); err != nil {
		return err
	}
	if err := a.tokens.Save(resp.Token); err != nil {
		return err
	}
	a.user = resp.User.Username
	fmt.Fprintln(a.out, "logged in as", a.user)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Post(ctx, "/auth/logout", nil, true)
	a.user = ""
	return a.tokens.Clear()
}

// Use switches the active entity view and loads it.
func (a *App) Use(ctx context.Context, name string) error {
	v, ok := a.views[name]
	if !ok {
		names := make([]string, 0, len(a.views))
		for n := range a.views {
			names = append(names, n)
		}
		fmt.Fprintln(a.out, "unknown entity; one of:", strings.Join(names, ", "))
		return fmt.Errorf("unknown entity %q", name)
	}
	a.current = v
	return a.reload(ctx)
}

func (a *App) reload(ctx context.Context) error {
	if err := a.current.Load(ctx); err != nil {
		fmt.Fprintln(a.out, "load failed:", err)
		return err
	}
	return nil
}

func (a *App) List(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	a.current.PrintVisible(a.out)
	return nil
}

func (a *App) ListDeleted(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	a.current.PrintDeleted(a.out)
	return nil
}

// Filter prompts for search text, a status value, and a date range, then
// applies them to the active view. Blank answers leave a criterion unset.
func (a *App) Filter(ctx context.Context) error {
	search, err := getSimpleText(a.reader, "Search text (blank for none)", a.out)
	if err != nil {
		return err
	}
	status, err := getSimpleText(a.reader, "Status (blank or All for any)", a.out)
	if err != nil {
		return err
	}
	from, err := getSimpleText(a.reader, "From date YYYY-MM-DD (blank for open)", a.out)
	if err != nil {
		return err
	}
	to, err := getSimpleText(a.reader, "To date YYYY-MM-DD (blank for open)", a.out)
	if err != nil {
		return err
	}

	c := filter.Criteria{Search: search, DateFrom: from, DateTo: to}
	if status != "" {
		c.Equals = map[string]string{"status": status}
	}
	a.current.SetCriteria(c)
	a.current.PrintVisible(a.out)
	return nil
}

// Delete starts the confirmation flow for a soft delete and walks the user
// through the challenge code.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	if err := a.current.RequestDelete(id); err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}
	return a.confirmLoop(ctx, true)
}

func (a *App) Recover(ctx context.Context, id string) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	if err := a.current.RequestRecover(id); err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}
	return a.confirmLoop(ctx, false)
}

func (a *App) RecoverAll(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	if a.current.DeletedCount() == 0 {
		fmt.Fprintln(a.out, "nothing to recover")
		return nil
	}
	if err := a.current.RequestRecoverAll(); err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}
	return a.confirmLoop(ctx, false)
}

// confirmLoop renders the challenge dialog until the action resolves or the
// user cancels. An empty input cancels; a mismatch shows the regenerated code.
func (a *App) confirmLoop(ctx context.Context, askReason bool) error {
	for a.current.ConfirmState() == listview.StateAwaitingChallenge {
		pending := a.current.PendingAction()
		if pending == nil {
			return nil
		}
		fmt.Fprintf(a.out, "%s: %s\n", strings.ToUpper(pending.Kind.String()), pending.TargetLabel)
		if msg := a.current.ChallengeError(); msg != "" {
			fmt.Fprintln(a.out, msg)
		}
		fmt.Fprintf(a.out, "Type %s to confirm (blank to cancel)\n", a.current.ChallengeCode())

		input, err := getSimpleText(a.reader, "Code", a.out)
		if err != nil {
			a.current.CancelAction()
			return err
		}
		if input == "" {
			a.current.CancelAction()
			fmt.Fprintln(a.out, "cancelled")
			return nil
		}

		reason := ""
		if askReason {
			reason, err = getSimpleText(a.reader, "Reason (optional)", a.out)
			if err != nil {
				a.current.CancelAction()
				return err
			}
		}

		if err := a.current.ConfirmChallenge(ctx, input, reason); err != nil {
			fmt.Fprintln(a.out, a.current.ActionError())
			return err
		}
	}
	if msg := a.current.ActionError(); msg != "" {
		fmt.Fprintln(a.out, msg)
	} else {
		fmt.Fprintln(a.out, "done")
	}
	return nil
}

// Show fetches one record on the active view and pretty prints it.
func (a *App) Show(ctx context.Context, id string) error {
	raw, err := a.api.Get(ctx, a.current.Name()+"/"+id, true)
	if err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}
	var data json.RawMessage
	if err := apiclient.DecodeData(raw, &data); err != nil {
		return err
	}
	var pretty map[string]interface{}
	if err := json.Unmarshal(data, &pretty); err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}
