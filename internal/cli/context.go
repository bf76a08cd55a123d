package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/flow/internal/collect"
	"github.com/temirov/flow/internal/config"
	"github.com/temirov/flow/internal/index"
	"github.com/temirov/flow/internal/tokenizer"
)

const (
	contextUse              = "context"
	contextShortDescription = "manage codebase context"
	contextLongDescription  = `Inspect and tune what flow includes when gathering codebase context.`

	contextShowUse     = "show [path]"
	contextShowShort   = "show what files would be included as context"
	contextIgnoreUse   = "ignore <pattern>"
	contextIgnoreShort = "add a pattern to the ignore list"
	contextTreeUse     = "tree [path]"
	contextTreeShort   = "print the project structure summary"

	verboseFlagName        = "verbose"
	verboseFlagDescription = "show the full file list"
	tokensFlagName         = "tokens"
	tokensFlagDescription  = "estimate token counts for the collected context"

	extensionSummaryLimit = 15
	verboseFileListLimit  = 50
)

// createContextCommand returns the context command group.
func (applicationState *application) createContextCommand() *cobra.Command {
	contextCommand := &cobra.Command{
		Use:   contextUse,
		Short: contextShortDescription,
		Long:  contextLongDescription,
	}
	contextCommand.AddCommand(
		applicationState.createContextShowCommand(),
		applicationState.createContextIgnoreCommand(),
		applicationState.createContextTreeCommand(),
	)
	return contextCommand
}

func (applicationState *application) createContextShowCommand() *cobra.Command {
	var verbose bool
	var showTokens bool

	showCommand := &cobra.Command{
		Use:   contextShowUse,
		Short: contextShowShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			rootDirectory := "."
			if len(arguments) > 0 {
				rootDirectory = arguments[0]
			}
			absoluteRoot, absoluteError := filepath.Abs(rootDirectory)
			if absoluteError != nil {
				return fmt.Errorf("resolve path %s: %w", rootDirectory, absoluteError)
			}
			if _, statError := os.Stat(absoluteRoot); statError != nil {
				return fmt.Errorf("path does not exist: %s", absoluteRoot)
			}

			configuration, configurationError := applicationState.loadConfiguration()
			if configurationError != nil {
				return configurationError
			}

			indexer := index.NewIndexer(absoluteRoot, configuration.Context.Ignore)
			if buildError := indexer.Build(); buildError != nil {
				return buildError
			}
			indexedFiles := indexer.AllFiles()

			fmt.Fprintf(command.OutOrStdout(), "Context: %s\n", filepath.Base(absoluteRoot))
			fmt.Fprintf(command.OutOrStdout(), "  Total files:        %d\n", len(indexedFiles))
			fmt.Fprintf(command.OutOrStdout(), "  Max files (config): %d\n", configuration.Context.MaxFiles)
			fmt.Fprintf(command.OutOrStdout(), "  Ignore patterns:    %s\n", strings.Join(configuration.Context.Ignore, ", "))

			extensionSummary := indexer.Summary()
			if len(extensionSummary) > 0 {
				fmt.Fprintln(command.OutOrStdout(), "\nFile types:")
				for summaryIndex, extensionCount := range extensionSummary {
					if summaryIndex >= extensionSummaryLimit {
						break
					}
					fmt.Fprintf(command.OutOrStdout(), "  %-16s %d\n", extensionCount.Extension, extensionCount.Count)
				}
			}

			if showTokens {
				collector := collect.NewCollector(configuration.Context.MaxFiles, configuration.Context.Ignore)
				collectedContext := collector.CollectPath(absoluteRoot)
				counter, counterError := tokenizer.NewCounter(configuration.Default.Model)
				if counterError != nil {
					return counterError
				}
				tokenCount, countError := counter.CountString(collectedContext)
				if countError != nil {
					return countError
				}
				fmt.Fprintf(command.OutOrStdout(), "\nEstimated context tokens (%s): %d\n", counter.Name(), tokenCount)
			}

			if verbose && len(indexedFiles) > 0 {
				fmt.Fprintln(command.OutOrStdout(), "\nFiles:")
				for fileIndex, fileRecord := range indexedFiles {
					if fileIndex >= verboseFileListLimit {
						fmt.Fprintf(command.OutOrStdout(), "  ... and %d more files\n", len(indexedFiles)-verboseFileListLimit)
						break
					}
					fmt.Fprintf(command.OutOrStdout(), "  %s\n", fileRecord.RelativePath)
				}
			}
			return nil
		},
	}
	showCommand.Flags().BoolVarP(&verbose, verboseFlagName, "v", false, verboseFlagDescription)
	showCommand.Flags().BoolVar(&showTokens, tokensFlagName, false, tokensFlagDescription)
	return showCommand
}

func (applicationState *application) createContextIgnoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   contextIgnoreUse,
		Short: contextIgnoreShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			homeDirectory, homeError := os.UserHomeDir()
			if homeError != nil {
				return fmt.Errorf("determine home directory: %w", homeError)
			}
			if appendError := config.AppendIgnorePattern(homeDirectory, arguments[0]); appendError != nil {
				return appendError
			}
			fmt.Fprintf(command.OutOrStdout(), "Added to ignore list: %s\n", arguments[0])
			return nil
		},
	}
}

func (applicationState *application) createContextTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   contextTreeUse,
		Short: contextTreeShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			rootDirectory := "."
			if len(arguments) > 0 {
				rootDirectory = arguments[0]
			}
			configuration, configurationError := applicationState.loadConfiguration()
			if configurationError != nil {
				return configurationError
			}
			collector := collect.NewCollector(configuration.Context.MaxFiles, configuration.Context.Ignore)
			summary, found := collector.CollectSummary(rootDirectory)
			if !found {
				return fmt.Errorf("no project descriptor found in %s", rootDirectory)
			}
			fmt.Fprintln(command.OutOrStdout(), summary)
			return nil
		},
	}
}
