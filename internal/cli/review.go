package cli

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/temirov/flow/internal/collect"
	"github.com/temirov/flow/internal/provider"
)

const (
	reviewUse              = "review [path]"
	reviewShortDescription = "get AI feedback on code"
	reviewLongDescription  = `Review a file, a directory, or the staged git diff.
The --focus flag narrows the review to one concern.`
	reviewUsageExample = `  # Review one file
  flow review internal/utils/readfile.go

  # Security-focused review of a directory
  flow review internal/auth --focus security

  # Review the staged changes
  flow review . --diff`

	focusFlagName        = "focus"
	focusFlagDescription = "focus area: all, security, performance, style, or bugs"
	diffFlagName         = "diff"
	diffFlagDescription  = "review staged git changes only"

	reviewPromptTemplate = "Please review the following code:\n\n%s"
)

type reviewOptions struct {
	focus           string
	stagedDiff      bool
	copyToClipboard bool
}

// createReviewCommand returns the review subcommand.
func (applicationState *application) createReviewCommand() *cobra.Command {
	var options reviewOptions

	reviewCommand := &cobra.Command{
		Use:     reviewUse,
		Short:   reviewShortDescription,
		Long:    reviewLongDescription,
		Example: reviewUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			reviewPath := "."
			if len(arguments) > 0 {
				reviewPath = arguments[0]
			}
			return applicationState.runReview(command, reviewPath, options)
		},
	}
	reviewCommand.Flags().StringVarP(&options.focus, focusFlagName, "f", reviewFocusAll, focusFlagDescription)
	reviewCommand.Flags().BoolVarP(&options.stagedDiff, diffFlagName, "d", false, diffFlagDescription)
	reviewCommand.Flags().BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	return reviewCommand
}

func (applicationState *application) runReview(command *cobra.Command, reviewPath string, options reviewOptions) error {
	systemPrompt, knownFocus := reviewSystemPrompts[strings.ToLower(options.focus)]
	if !knownFocus {
		return fmt.Errorf("unknown focus %q: valid values are %s, %s, %s, %s, and %s",
			options.focus, reviewFocusAll, reviewFocusSecurity, reviewFocusPerformance, reviewFocusStyle, reviewFocusBugs)
	}

	configuration, configurationError := applicationState.loadConfiguration()
	if configurationError != nil {
		return configurationError
	}

	var codeToReview string
	if options.stagedDiff {
		stagedDiff, diffError := stagedGitDiff()
		if diffError != nil {
			return diffError
		}
		if stagedDiff == "" {
			return fmt.Errorf("no staged changes to review: stage changes with 'git add <files>'")
		}
		codeToReview = stagedDiff
	} else {
		collector := collect.NewCollector(configuration.Context.MaxFiles, configuration.Context.Ignore)
		codeToReview = collector.CollectPath(reviewPath)
		if codeToReview == "" {
			return fmt.Errorf("no reviewable code found at %s", reviewPath)
		}
	}

	authClient, authClientError := applicationState.newAuthClient()
	if authClientError != nil {
		return authClientError
	}
	backend, providerError := provider.NewProvider(configuration, authClient, applicationState.logger)
	if providerError != nil {
		return providerError
	}

	result, generateError := backend.Generate(command.Context(), provider.Request{
		Prompt: fmt.Sprintf(reviewPromptTemplate, codeToReview),
		System: systemPrompt,
	})
	if generateError != nil {
		return generateError
	}

	fmt.Fprintln(command.OutOrStdout(), result.Content)
	fmt.Fprintf(command.OutOrStdout(), usageStatsTemplate, result.Model, result.Usage["input_tokens"]+result.Usage["output_tokens"])

	if options.copyToClipboard {
		if clipboardError := clipboard.WriteAll(result.Content); clipboardError != nil {
			fmt.Fprintf(command.ErrOrStderr(), warningClipboardWriteFormat, clipboardError)
		}
	}
	return nil
}

// stagedGitDiff returns the output of git diff --cached, trimmed.
func stagedGitDiff() (string, error) {
	diffOutput, diffError := exec.Command("git", "diff", "--cached").Output()
	if diffError != nil {
		return "", fmt.Errorf("run git diff --cached: %w", diffError)
	}
	return strings.TrimSpace(string(diffOutput)), nil
}
