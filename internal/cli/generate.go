package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flow/internal/collect"
	"github.com/temirov/flow/internal/config"
	"github.com/temirov/flow/internal/provider"
)

const (
	generateUse              = "generate <prompt>"
	generateShortDescription = "generate code from a natural language prompt"
	generateLongDescription  = `Generate code from a natural language prompt.
Codebase context is collected automatically unless --no-context is given;
--context points at a specific file or directory and --jira pulls an issue
description into the prompt.`
	generateUsageExample = `  # Generate a CSV parser
  flow generate "a function to parse CSV files"

  # Target a language and write the code to a file
  flow generate "REST API endpoint for users" -l go -o api.go

  # Use a specific file as context
  flow generate "add error handling" -c internal/utils/readfile.go

  # Pull a Jira issue into the prompt
  flow generate "implement this feature" --jira PROJ-123`

	outputFlagName           = "output"
	outputFlagDescription    = "write the extracted code to a file"
	languageFlagName         = "language"
	languageFlagDescription  = "target programming language"
	contextFlagName          = "context"
	contextFlagDescription   = "file or directory to use as context"
	jiraFlagName             = "jira"
	jiraFlagDescription      = "Jira issue key to use as context"
	noContextFlagName        = "no-context"
	noContextFlagDescription = "disable automatic context collection"
	copyFlagName             = "copy"
	copyFlagDescription      = "copy the result to the clipboard"

	usageStatsTemplate          = "\nModel: %s | Tokens: %d\n"
	warningJiraNotConfigured    = "Warning: Jira not configured, skipping issue context\n"
	warningJiraFetchFormat      = "Warning: could not fetch Jira issue %s: %v\n"
	warningClipboardWriteFormat = "Warning: could not copy to clipboard: %v\n"
)

type generateOptions struct {
	outputPath      string
	language        string
	contextPath     string
	jiraIssueKey    string
	disableContext  bool
	copyToClipboard bool
}

// createGenerateCommand returns the generate subcommand.
func (applicationState *application) createGenerateCommand() *cobra.Command {
	var options generateOptions

	generateCommand := &cobra.Command{
		Use:     generateUse,
		Short:   generateShortDescription,
		Long:    generateLongDescription,
		Example: generateUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return applicationState.runGenerate(command, arguments[0], options)
		},
	}
	generateCommand.Flags().StringVarP(&options.outputPath, outputFlagName, "o", "", outputFlagDescription)
	generateCommand.Flags().StringVarP(&options.language, languageFlagName, "l", "", languageFlagDescription)
	generateCommand.Flags().StringVarP(&options.contextPath, contextFlagName, "c", "", contextFlagDescription)
	generateCommand.Flags().StringVarP(&options.jiraIssueKey, jiraFlagName, "j", "", jiraFlagDescription)
	generateCommand.Flags().BoolVar(&options.disableContext, noContextFlagName, false, noContextFlagDescription)
	generateCommand.Flags().BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	return generateCommand
}

func (applicationState *application) runGenerate(command *cobra.Command, prompt string, options generateOptions) error {
	configuration, configurationError := applicationState.loadConfiguration()
	if configurationError != nil {
		return configurationError
	}

	fullPrompt := prompt
	if options.language != "" {
		fullPrompt = fmt.Sprintf("Generate %s code: %s", options.language, prompt)
	}

	contextContent := applicationState.assembleContext(command, configuration, options)

	authClient, authClientError := applicationState.newAuthClient()
	if authClientError != nil {
		return authClientError
	}
	backend, providerError := provider.NewProvider(configuration, authClient, applicationState.logger)
	if providerError != nil {
		return providerError
	}

	result, generateError := backend.Generate(command.Context(), provider.Request{
		Prompt:  fullPrompt,
		System:  generateSystemPrompt,
		Context: contextContent,
	})
	if generateError != nil {
		return generateError
	}

	fmt.Fprintln(command.OutOrStdout(), result.Content)
	fmt.Fprintf(command.OutOrStdout(), usageStatsTemplate, result.Model, result.Usage["input_tokens"]+result.Usage["output_tokens"])

	if options.outputPath != "" {
		extractedCode := extractCode(result.Content)
		if writeError := os.WriteFile(options.outputPath, []byte(extractedCode), 0o644); writeError != nil {
			return fmt.Errorf("write output to %s: %w", options.outputPath, writeError)
		}
		fmt.Fprintf(command.OutOrStdout(), "Written to %s\n", options.outputPath)
	}

	if options.copyToClipboard {
		if clipboardError := clipboard.WriteAll(result.Content); clipboardError != nil {
			fmt.Fprintf(command.ErrOrStderr(), warningClipboardWriteFormat, clipboardError)
		}
	}
	return nil
}

// assembleContext gathers Jira and filesystem context per the command flags.
// Failures degrade to warnings so generation still proceeds.
func (applicationState *application) assembleContext(command *cobra.Command, configuration config.ApplicationConfiguration, options generateOptions) string {
	var contextParts []string

	if options.jiraIssueKey != "" {
		if !configuration.Jira.IsConfigured() {
			fmt.Fprint(command.ErrOrStderr(), warningJiraNotConfigured)
		} else {
			jiraClient := applicationState.newJiraClient(configuration)
			issue, issueError := jiraClient.GetIssue(command.Context(), options.jiraIssueKey)
			if issueError != nil {
				fmt.Fprintf(command.ErrOrStderr(), warningJiraFetchFormat, options.jiraIssueKey, issueError)
				applicationState.logger.Warn("jira issue fetch failed", zap.String("issue", options.jiraIssueKey), zap.Error(issueError))
			} else {
				contextParts = append(contextParts, issue.ToContext())
			}
		}
	}

	collector := collect.NewCollector(configuration.Context.MaxFiles, configuration.Context.Ignore)
	if options.contextPath != "" {
		if fileContext := collector.CollectPath(options.contextPath); fileContext != "" {
			contextParts = append(contextParts, fileContext)
		}
	} else if !options.disableContext {
		if projectContext, found := collector.CollectSummary("."); found {
			contextParts = append(contextParts, projectContext)
		}
	}

	return strings.Join(contextParts, "\n\n")
}

// extractCode strips Markdown fences, returning only fenced content. Content
// without fences passes through untouched.
func extractCode(content string) string {
	var codeLines []string
	insideCodeBlock := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			insideCodeBlock = !insideCodeBlock
			continue
		}
		if insideCodeBlock {
			codeLines = append(codeLines, line)
		}
	}
	if len(codeLines) == 0 {
		return content
	}
	return strings.Join(codeLines, "\n")
}
