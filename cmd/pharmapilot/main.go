package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/pharmapilot/pharmapilot-cli/config"
	"github.com/pharmapilot/pharmapilot-cli/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Deps   *bootstrap.ClientDeps
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	deps, err := bootstrap.NewClientDeps(ctx, &cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "wire client", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal startup failure to shell scripts
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.Warn("close state store failed", "error", closeErr)
		}
	}()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Deps:   deps,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in with email and password and cache the session",
			run:         runLogin,
		},
		"register": {
			name:        "register",
			description: "Create a new researcher account",
			run:         runRegister,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and clear cached credentials",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Restore the cached session and show the signed-in user",
			run:         runWhoami,
		},
		"chat": {
			name:        "chat",
			description: "Start an interactive assistant session",
			run:         runChat,
		},
		"theme": {
			name:        "theme",
			description: "Toggle the light/dark theme preference",
			run:         runTheme,
		},
		"forgot-password": {
			name:        "forgot-password",
			description: "Request a password reset email",
			run:         runForgotPassword,
		},
		"reset-password": {
			name:        "reset-password",
			description: "Reset the password with an emailed token",
			run:         runResetPassword,
		},
		"audit": {
			name:        "audit",
			description: "Show recent authentication audit events",
			run:         runAudit,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: pharmapilot <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := cmds[name]
		if err := writef(os.Stdout, "  %-18s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
