package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/pharmapilot/pharmapilot-cli/internal/service"
	"github.com/pharmapilot/pharmapilot-cli/internal/util"
)

// defaultChatSession is the backend chat session used until server-side
// session management is wired into the CLI.
const defaultChatSession int64 = 1

func runChat(cmdCtx *commandContext, _ []string) error {
	if err := writef(os.Stdout, "Restoring session...\n"); err != nil {
		return err
	}

	route, err := cmdCtx.Deps.Gate.Resolve(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if route != service.RouteChat {
		return writef(os.Stdout, "Not signed in. Run `pharmapilot login` first.\n")
	}

	st := cmdCtx.Deps.Controller.State()
	if err = writef(os.Stdout, "Welcome back, %s. Type a prompt, or /quit to exit.\n",
		st.User.FullName); err != nil {
		return err
	}

	convID := cmdCtx.Deps.Controller.StartConversation("terminal session")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if err = writef(os.Stdout, "> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			if scanErr := scanner.Err(); scanErr != nil && !errors.Is(scanErr, io.EOF) {
				return scanErr
			}
			return nil
		}

		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "/quit" || prompt == "/exit" {
			return nil
		}

		if err = generateAndPrint(cmdCtx, convID, prompt); err != nil {
			// Keep the session alive across transient failures; the
			// message was already surfaced.
			cmdCtx.Logger.Warn("generate failed", "error", err)
			if printErr := writef(os.Stdout, "! %v\n", describeAuthFailure(err)); printErr != nil {
				return printErr
			}
		}
	}
}

func generateAndPrint(cmdCtx *commandContext, convID, prompt string) error {
	token, err := cmdCtx.Deps.Controller.AccessToken(cmdCtx.Ctx)
	if err != nil {
		return err
	}

	resp, err := cmdCtx.Deps.API.Generate(cmdCtx.Ctx, token, prompt, defaultChatSession)
	if err != nil {
		return err
	}

	if err = writef(os.Stdout, "%s\n", resp.Content); err != nil {
		return err
	}
	for _, chart := range resp.Charts {
		if err = writef(os.Stdout, "  %s\n", util.FormatChartSummary(chart)); err != nil {
			return err
		}
	}

	cmdCtx.Deps.Controller.RecordExchange(convID, prompt, resp)
	return nil
}
