// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flow/internal/auth"
	"github.com/temirov/flow/internal/config"
	"github.com/temirov/flow/internal/jira"
	"github.com/temirov/flow/internal/utils"
)

const (
	rootUse              = "flow"
	rootShortDescription = "flow command line interface"
	rootLongDescription  = `flow is an AI development assistant.
It generates and reviews code with codebase context, scaffolds projects,
and integrates with Jira. Backends are selectable between the Anthropic
cloud API and a local Ollama daemon.`

	versionFlagName        = "version"
	versionFlagDescription = "display application version"
	versionTemplate        = "flow version: %s\n"

	configFlagName        = "config"
	configFlagDescription = "path to an alternate configuration file"
)

// application carries the dependencies shared by every command. It is built
// once in Execute and threaded through command constructors explicitly.
type application struct {
	logger         *zap.Logger
	configFilePath string
}

// Execute runs the flow application.
func Execute(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	applicationState := &application{logger: logger}
	return applicationState.createRootCommand().Execute()
}

// createRootCommand builds the root Cobra command.
func (applicationState *application) createRootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&applicationState.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		applicationState.createGenerateCommand(),
		applicationState.createReviewCommand(),
		applicationState.createScaffoldCommand(),
		applicationState.createAuthCommand(),
		applicationState.createJiraCommand(),
		applicationState.createContextCommand(),
		applicationState.createConfigCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// loadConfiguration reads the application configuration, honoring --config.
func (applicationState *application) loadConfiguration() (config.ApplicationConfiguration, error) {
	return config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: applicationState.configFilePath})
}

// newAuthClient builds the OAuth client backed by the standard token store.
func (applicationState *application) newAuthClient() (*auth.Client, error) {
	tokenStore, storeError := auth.DefaultStore()
	if storeError != nil {
		return nil, storeError
	}
	return auth.NewClient(auth.Options{Store: tokenStore, Logger: applicationState.logger}), nil
}

// newJiraClient builds a Jira client from the loaded configuration.
func (applicationState *application) newJiraClient(configuration config.ApplicationConfiguration) *jira.Client {
	return jira.NewClient(jira.Options{
		BaseURL:        configuration.Jira.URL,
		Email:          configuration.Jira.Email,
		APIToken:       configuration.Jira.APIToken,
		DefaultProject: configuration.Jira.DefaultProject,
		Logger:         applicationState.logger,
	})
}
