package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
)

type loginOptions struct {
	Email    string
	Password string
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	var opts loginOptions
	fs.StringVar(&opts.Email, "email", "", "account email (prompted when omitted)")
	fs.StringVar(&opts.Password, "password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if opts.Email == "" {
		if opts.Email, err = promptLine("Email: "); err != nil {
			return err
		}
	}
	if opts.Password == "" {
		if opts.Password, err = promptLine("Password: "); err != nil {
			return err
		}
	}

	creds, err := cmdCtx.Deps.API.Login(cmdCtx.Ctx, opts.Email, opts.Password)
	if err != nil {
		return describeAuthFailure(err)
	}

	profile, err := cmdCtx.Deps.API.CurrentUser(cmdCtx.Ctx, creds.AccessToken)
	if err != nil {
		return describeAuthFailure(err)
	}

	cmdCtx.Deps.Controller.LoginUser(profile)
	if saveErr := cmdCtx.Deps.Store.SaveUser(cmdCtx.Ctx, profile); saveErr != nil {
		cmdCtx.Logger.Warn("cache user profile failed", "error", saveErr)
	}

	return writef(os.Stdout, "Signed in as %s <%s>\n", profile.FullName, profile.Email)
}

type registerOptions struct {
	Email    string
	FullName string
	Password string
}

func runRegister(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var opts registerOptions
	fs.StringVar(&opts.Email, "email", "", "account email")
	fs.StringVar(&opts.FullName, "name", "", "full name")
	fs.StringVar(&opts.Password, "password", "", "account password (min 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if opts.Email == "" {
		if opts.Email, err = promptLine("Email: "); err != nil {
			return err
		}
	}
	if opts.FullName == "" {
		if opts.FullName, err = promptLine("Full name: "); err != nil {
			return err
		}
	}
	if opts.Password == "" {
		if opts.Password, err = promptLine("Password: "); err != nil {
			return err
		}
	}

	profile, err := cmdCtx.Deps.API.Register(cmdCtx.Ctx, opts.Email, opts.FullName, opts.Password)
	if err != nil {
		return describeAuthFailure(err)
	}

	return writef(os.Stdout, "Account created for %s <%s>. Run `pharmapilot login` to sign in.\n",
		profile.FullName, profile.Email)
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	if err := cmdCtx.Deps.Controller.LogoutUser(cmdCtx.Ctx); err != nil {
		return err
	}
	return writef(os.Stdout, "Signed out.\n")
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	if err := cmdCtx.Deps.Controller.Restore(cmdCtx.Ctx); err != nil {
		return err
	}

	st := cmdCtx.Deps.Controller.State()
	if st.User == nil {
		return writef(os.Stdout, "Not signed in.\n")
	}
	return writef(os.Stdout, "%s <%s> (%s)\n", st.User.FullName, st.User.Email, st.User.Role)
}

func runTheme(cmdCtx *commandContext, _ []string) error {
	theme, err := cmdCtx.Deps.Controller.ToggleTheme(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return writef(os.Stdout, "Theme set to %s.\n", theme)
}

func runForgotPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("forgot-password", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	addr := *email
	if addr == "" {
		if addr, err = promptLine("Email: "); err != nil {
			return err
		}
	}

	detail, err := cmdCtx.Deps.API.RequestPasswordReset(cmdCtx.Ctx, addr)
	if err != nil {
		return describeAuthFailure(err)
	}
	return writef(os.Stdout, "%s\n", detail)
}

func runResetPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	token := fs.String("token", "", "reset token from the email")
	password := fs.String("password", "", "new password (min 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	tok, pw := *token, *password
	if tok == "" {
		if tok, err = promptLine("Reset token: "); err != nil {
			return err
		}
	}
	if pw == "" {
		if pw, err = promptLine("New password: "); err != nil {
			return err
		}
	}

	detail, err := cmdCtx.Deps.API.ResetPassword(cmdCtx.Ctx, tok, pw)
	if err != nil {
		return describeAuthFailure(err)
	}
	return writef(os.Stdout, "%s\n", detail)
}

func runAudit(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum number of events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := cmdCtx.Deps.Controller.AccessToken(cmdCtx.Ctx)
	if err != nil {
		return describeAuthFailure(err)
	}

	events, err := cmdCtx.Deps.API.AuditLogs(cmdCtx.Ctx, token, *limit)
	if err != nil {
		return describeAuthFailure(err)
	}
	if len(events) == 0 {
		return writef(os.Stdout, "No audit events.\n")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "TIME\tEVENT\tOK\tDETAILS\n"); err != nil {
		return err
	}
	for _, ev := range events {
		ok := "yes"
		if !ev.Success {
			ok = "no"
		}
		if err := writef(w, "%s\t%s\t%s\t%s\n", ev.CreatedAt, ev.EventType, ok, ev.Details); err != nil {
			return err
		}
	}
	return w.Flush()
}

// describeAuthFailure rewrites domain auth errors into messages fit for
// the terminal. Transient validation and credential failures should read
// as guidance, not stack context.
func describeAuthFailure(err error) error {
	var ae *domainauth.Error
	if !errors.As(err, &ae) {
		return err
	}
	switch ae.Kind {
	case domainauth.KindNetworkFailure:
		return fmt.Errorf("%s. Check your connection and try again", ae.Message)
	case domainauth.KindNotAuthenticated:
		if ae.Status == 0 {
			return errors.New("not signed in; run `pharmapilot login` first")
		}
		return fmt.Errorf("session expired or rejected (%d); run `pharmapilot login` again", ae.Status)
	default:
		return errors.New(ae.Message)
	}
}

func promptLine(prompt string) (string, error) {
	if err := writef(os.Stdout, "%s", prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
