package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/flow/internal/scaffold"
)

const (
	scaffoldUse              = "scaffold <name>"
	scaffoldShortDescription = "generate a new project structure"
	scaffoldLongDescription  = `Generate a starter project tree from a built-in template.
The --type flag selects between a CLI tool, a REST API, and a library.`
	scaffoldUsageExample = `  # Scaffold a command-line tool
  flow scaffold my-tool

  # Scaffold an API in a specific directory
  flow scaffold my-api --type api --output ~/projects`

	typeFlagName                  = "type"
	typeFlagDescription           = "project type: cli, api, or library"
	scaffoldOutputFlagName        = "output"
	scaffoldOutputFlagDescription = "parent directory for the new project"
	forceFlagName                 = "force"
	forceFlagDescription          = "overwrite existing files"
)

// createScaffoldCommand returns the scaffold subcommand.
func (applicationState *application) createScaffoldCommand() *cobra.Command {
	var projectType string
	var outputDirectory string
	var force bool

	scaffoldCommand := &cobra.Command{
		Use:     scaffoldUse,
		Short:   scaffoldShortDescription,
		Long:    scaffoldLongDescription,
		Example: scaffoldUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			result, generateError := scaffold.Generate(scaffold.Options{
				Name:            arguments[0],
				Type:            projectType,
				OutputDirectory: outputDirectory,
				Force:           force,
			})
			if generateError != nil {
				return generateError
			}

			fmt.Fprintf(command.OutOrStdout(), "Created project: %s\n\n", result.ProjectDirectory)
			for _, createdFile := range result.CreatedFiles {
				fmt.Fprintf(command.OutOrStdout(), "  %s\n", createdFile)
			}
			fmt.Fprintln(command.OutOrStdout(), "\nNext steps:")
			for _, nextStep := range result.NextSteps {
				fmt.Fprintf(command.OutOrStdout(), "  %s\n", nextStep)
			}
			return nil
		},
	}
	scaffoldCommand.Flags().StringVarP(&projectType, typeFlagName, "t", scaffold.TypeCLI, typeFlagDescription)
	scaffoldCommand.Flags().StringVarP(&outputDirectory, scaffoldOutputFlagName, "o", "", scaffoldOutputFlagDescription)
	scaffoldCommand.Flags().BoolVarP(&force, forceFlagName, "f", false, forceFlagDescription)
	return scaffoldCommand
}
