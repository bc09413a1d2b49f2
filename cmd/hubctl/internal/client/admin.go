package client

import (
	"errors"
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
)

// PasswordPrompt asks the user for a secret.
type PasswordPrompt func(label string) (string, error)

// TerminalPasswordPrompt reads a masked password from the terminal.
func TerminalPasswordPrompt(label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show(label)
}

// EnsureAdminCredentials makes sure session can make admin calls.
//
// The admin password only lives in ephemeral storage, which does not
// outlive a hubctl process. When it is missing the password is taken from
// CSSHUB_ADMIN_PASSWORD or, in interactive mode, from prompt.
func EnsureAdminCredentials(session *sdk.Session, nonInteractive bool, prompt PasswordPrompt) error {
	username, ok := session.AdminUsername()
	if !ok {
		return &sdk.Error{
			Kind:    sdk.KindAuthenticationRequired,
			Message: "admin login required, run `hubctl admin login`",
			Err:     sdk.ErrAuthenticationRequired,
		}
	}
	if session.AdminAuth().HasBasic() {
		return nil
	}

	if ok, env := sdk.CheckEnvAdminCreds(); ok && env.Username == username {
		return session.AdminLogin(username, env.Password, false)
	}
	if nonInteractive || prompt == nil {
		return &sdk.Error{
			Kind:    sdk.KindAuthenticationRequired,
			Message: "admin password unavailable in non-interactive mode, set CSSHUB_ADMIN_PASSWORD",
			Err:     sdk.ErrAuthenticationRequired,
		}
	}

	password, err := prompt(fmt.Sprintf("Password for admin %s", username))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}
	return session.AdminLogin(username, password, false)
}

// ResolvePassword returns flagValue when set, otherwise prompts for it.
func ResolvePassword(flagValue, label string, nonInteractive bool, prompt PasswordPrompt) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if nonInteractive || prompt == nil {
		return "", errors.New("--password is required in non-interactive mode")
	}
	password, err := prompt(label)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
