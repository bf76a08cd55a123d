package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/flow/internal/auth"
)

const (
	authUse              = "auth"
	authShortDescription = "manage authentication"
	authLongDescription  = `Manage the OAuth token used for subscription-based inference.
Login opens a browser for the authorization flow; import reuses an existing
Claude Code credential file.`

	loginUse          = "login"
	loginShort        = "log in with a Claude subscription via OAuth"
	logoutUse         = "logout"
	logoutShort       = "log out and delete stored OAuth tokens"
	importUse         = "import"
	importShort       = "import OAuth tokens from Claude Code"
	authStatusUse     = "status"
	authStatusShort   = "show current authentication status"
	maskedKeyTemplate = "...%s"
)

// createAuthCommand returns the auth command group.
func (applicationState *application) createAuthCommand() *cobra.Command {
	authCommand := &cobra.Command{
		Use:   authUse,
		Short: authShortDescription,
		Long:  authLongDescription,
	}
	authCommand.AddCommand(
		applicationState.createAuthLoginCommand(),
		applicationState.createAuthLogoutCommand(),
		applicationState.createAuthImportCommand(),
		applicationState.createAuthStatusCommand(),
	)
	return authCommand
}

func (applicationState *application) createAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   loginUse,
		Short: loginShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			authClient, authClientError := applicationState.newAuthClient()
			if authClientError != nil {
				return authClientError
			}
			if _, alreadyAuthenticated := authClient.Store().Load(); alreadyAuthenticated {
				return fmt.Errorf("already authenticated: run 'flow auth logout' first to re-authenticate")
			}

			session, beginError := authClient.BeginLogin()
			if beginError != nil {
				return beginError
			}

			fmt.Fprintln(command.OutOrStdout(), "Opening browser for authentication...")
			if openError := openBrowser(session.AuthorizeURL); openError != nil {
				fmt.Fprintf(command.ErrOrStderr(), "Warning: could not open browser: %v\n", openError)
				fmt.Fprintf(command.OutOrStdout(), "Open this URL manually:\n%s\n", session.AuthorizeURL)
			}

			fmt.Fprintln(command.OutOrStdout(), "\nAfter authorizing, you'll be redirected to a page with an authorization code.")
			fmt.Fprint(command.OutOrStdout(), "Authorization code: ")

			codeReader := bufio.NewReader(command.InOrStdin())
			pastedCode, readError := codeReader.ReadString('\n')
			if readError != nil {
				return fmt.Errorf("read authorization code: %w", readError)
			}
			pastedCode = strings.TrimSpace(pastedCode)
			if pastedCode == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if _, loginError := authClient.CompleteLogin(command.Context(), session, pastedCode); loginError != nil {
				return loginError
			}
			fmt.Fprintln(command.OutOrStdout(), "\nSuccessfully authenticated!")
			return nil
		},
	}
}

func (applicationState *application) createAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   logoutUse,
		Short: logoutShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			tokenStore, storeError := auth.DefaultStore()
			if storeError != nil {
				return storeError
			}
			if tokenStore.Delete() {
				fmt.Fprintln(command.OutOrStdout(), "Successfully logged out.")
			} else {
				fmt.Fprintln(command.OutOrStdout(), "No OAuth tokens found.")
			}
			return nil
		},
	}
}

func (applicationState *application) createAuthImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   importUse,
		Short: importShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			credentialsPath, pathError := auth.DefaultClaudeCredentialsPath()
			if pathError != nil {
				return pathError
			}
			importedToken, importError := auth.ImportClaudeCredentials(credentialsPath)
			if importError != nil {
				return fmt.Errorf("import from %s: %w", credentialsPath, importError)
			}

			tokenStore, storeError := auth.DefaultStore()
			if storeError != nil {
				return storeError
			}
			if saveError := tokenStore.Save(importedToken); saveError != nil {
				return saveError
			}
			fmt.Fprintln(command.OutOrStdout(), "Successfully imported tokens from Claude Code!")
			return nil
		},
	}
}

func (applicationState *application) createAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   authStatusUse,
		Short: authStatusShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			tokenStore, storeError := auth.DefaultStore()
			if storeError != nil {
				return storeError
			}
			if storedToken, present := tokenStore.Load(); present {
				fmt.Fprintln(command.OutOrStdout(), "Authenticated via OAuth (Claude subscription)")
				remaining := time.Until(time.Unix(storedToken.ExpiresAt, 0))
				if remaining > 0 {
					fmt.Fprintf(command.OutOrStdout(), "Token expires in %d minutes\n", int(remaining.Minutes()))
				}
				return nil
			}

			configuration, configurationError := applicationState.loadConfiguration()
			if configurationError != nil {
				return configurationError
			}
			if apiKey := configuration.Anthropic.APIKey; apiKey != "" {
				maskedSuffix := apiKey
				if len(apiKey) > 4 {
					maskedSuffix = apiKey[len(apiKey)-4:]
				}
				fmt.Fprintf(command.OutOrStdout(), "Authenticated via API key (%s)\n", fmt.Sprintf(maskedKeyTemplate, maskedSuffix))
				return nil
			}

			fmt.Fprintln(command.OutOrStdout(), "Not authenticated")
			fmt.Fprintln(command.OutOrStdout(), "\nTo authenticate, either:")
			fmt.Fprintln(command.OutOrStdout(), "  1. Run 'flow auth login' (uses your Claude Pro/Max subscription)")
			fmt.Fprintln(command.OutOrStdout(), "  2. Set the ANTHROPIC_API_KEY environment variable")
			fmt.Fprintln(command.OutOrStdout(), "  3. Run 'flow config set anthropic.api_key YOUR_KEY'")
			return nil
		},
	}
}
