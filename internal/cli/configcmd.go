package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/flow/internal/config"
)

const (
	configUse              = "config"
	configShortDescription = "manage configuration"
	configLongDescription  = `Read and write the flow configuration file.
Keys use the form section.key, for example default.provider or jira.url.`

	configInitUse   = "init"
	configInitShort = "write the default configuration file"
	configGetUse    = "get <key>"
	configGetShort  = "print one configuration value"
	configSetUse    = "set <key> <value>"
	configSetShort  = "set one configuration value"
)

// createConfigCommand returns the config command group.
func (applicationState *application) createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		Long:  configLongDescription,
	}
	configCommand.AddCommand(
		applicationState.createConfigInitCommand(),
		applicationState.createConfigGetCommand(),
		applicationState.createConfigSetCommand(),
	)
	return configCommand
}

func (applicationState *application) createConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   configInitUse,
		Short: configInitShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			homeDirectory, homeError := os.UserHomeDir()
			if homeError != nil {
				return fmt.Errorf("determine home directory: %w", homeError)
			}
			writtenPath, initError := config.InitConfigFile(homeDirectory)
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), "Wrote configuration to %s\n", writtenPath)
			return nil
		},
	}
}

func (applicationState *application) createConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   configGetUse,
		Short: configGetShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, configurationError := applicationState.loadConfiguration()
			if configurationError != nil {
				return configurationError
			}
			value, found := lookupConfigValue(configuration, arguments[0])
			if !found {
				return fmt.Errorf("unknown configuration key %q", arguments[0])
			}
			fmt.Fprintln(command.OutOrStdout(), value)
			return nil
		},
	}
}

func (applicationState *application) createConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   configSetUse,
		Short: configSetShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			homeDirectory, homeError := os.UserHomeDir()
			if homeError != nil {
				return fmt.Errorf("determine home directory: %w", homeError)
			}
			if setError := config.SetConfigValue(homeDirectory, arguments[0], arguments[1]); setError != nil {
				return setError
			}
			fmt.Fprintf(command.OutOrStdout(), "Set %s\n", arguments[0])
			return nil
		},
	}
}

// lookupConfigValue resolves a section.key reference against the loaded configuration.
func lookupConfigValue(configuration config.ApplicationConfiguration, key string) (string, bool) {
	switch strings.ToLower(key) {
	case "default.provider":
		return configuration.Default.Provider, true
	case "default.model":
		return configuration.Default.Model, true
	case "anthropic.api_key":
		return configuration.Anthropic.APIKey, true
	case "ollama.host":
		return configuration.Ollama.Host, true
	case "ollama.model":
		return configuration.Ollama.Model, true
	case "jira.url":
		return configuration.Jira.URL, true
	case "jira.email":
		return configuration.Jira.Email, true
	case "jira.api_token":
		return configuration.Jira.APIToken, true
	case "jira.default_project":
		return configuration.Jira.DefaultProject, true
	case "context.max_files":
		return fmt.Sprintf("%d", configuration.Context.MaxFiles), true
	case "context.ignore":
		return strings.Join(configuration.Context.Ignore, ", "), true
	default:
		return "", false
	}
}
