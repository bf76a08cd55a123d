package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/flow/internal/jira"
)

const (
	jiraUse              = "jira"
	jiraShortDescription = "Jira integration commands"
	jiraLongDescription  = `Work with Jira issues: view, search, create, comment, and transition.
Configure the connection with JIRA_URL, JIRA_EMAIL, and JIRA_API_TOKEN or via
'flow config set jira.<key> <value>'.`

	jiraViewUse         = "view <issue-key>"
	jiraViewShort       = "view details of an issue"
	jiraSearchUse       = "search"
	jiraSearchShort     = "search for issues"
	jiraMineUse         = "mine"
	jiraMineShort       = "list your unresolved issues"
	jiraCreateUse       = "create <summary>"
	jiraCreateShort     = "create a new issue"
	jiraCommentUse      = "comment <issue-key> <comment>"
	jiraCommentShort    = "add a comment to an issue"
	jiraTransitionUse   = "transition <issue-key> <status>"
	jiraTransitionShort = "move an issue to a new status"
	jiraProjectsUse     = "projects"
	jiraProjectsShort   = "list accessible projects"

	projectFlagName            = "project"
	projectFlagDescription     = "project key to filter by"
	assigneeFlagName           = "assignee"
	assigneeFlagDescription    = "assignee (use 'me' for yourself)"
	statusFlagName             = "status"
	statusFlagDescription      = "status to filter by"
	jqlFlagName                = "jql"
	jqlFlagDescription         = "raw JQL query"
	limitFlagName              = "limit"
	limitFlagDescription       = "maximum number of results"
	descriptionFlagName        = "description"
	descriptionFlagDescription = "issue description"
	issueTypeFlagName          = "issue-type"
	issueTypeFlagDescription   = "issue type (Task, Bug, Story, ...)"
	labelFlagName              = "label"
	labelFlagDescription       = "label to add (repeatable)"
	priorityFlagName           = "priority"
	priorityFlagDescription    = "priority name"

	jiraNotConfiguredMessage = `jira not configured: set JIRA_URL, JIRA_EMAIL, and JIRA_API_TOKEN environment variables or run 'flow config set jira.<key> <value>'`

	issueListLineTemplate = "%-12s %-14s %s\n"
)

// createJiraCommand returns the jira command group.
func (applicationState *application) createJiraCommand() *cobra.Command {
	jiraCommand := &cobra.Command{
		Use:   jiraUse,
		Short: jiraShortDescription,
		Long:  jiraLongDescription,
	}
	jiraCommand.AddCommand(
		applicationState.createJiraViewCommand(),
		applicationState.createJiraSearchCommand(),
		applicationState.createJiraMineCommand(),
		applicationState.createJiraCreateCommand(),
		applicationState.createJiraCommentCommand(),
		applicationState.createJiraTransitionCommand(),
		applicationState.createJiraProjectsCommand(),
	)
	return jiraCommand
}

// configuredJiraClient returns a Jira client or an error when required
// connection settings are absent.
func (applicationState *application) configuredJiraClient() (*jira.Client, error) {
	configuration, configurationError := applicationState.loadConfiguration()
	if configurationError != nil {
		return nil, configurationError
	}
	if !configuration.Jira.IsConfigured() {
		return nil, errors.New(jiraNotConfiguredMessage)
	}
	return applicationState.newJiraClient(configuration), nil
}

func printIssueList(command *cobra.Command, issues []jira.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(command.OutOrStdout(), "No issues found.")
		return
	}
	for _, issue := range issues {
		fmt.Fprintf(command.OutOrStdout(), issueListLineTemplate, issue.Key, issue.Status, issue.Summary)
	}
}

func (applicationState *application) createJiraViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   jiraViewUse,
		Short: jiraViewShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			issue, issueError := jiraClient.GetIssue(command.Context(), arguments[0])
			if issueError != nil {
				return issueError
			}
			fmt.Fprintln(command.OutOrStdout(), issue.ToContext())
			fmt.Fprintf(command.OutOrStdout(), "\n**URL:** %s\n", issue.URL)
			return nil
		},
	}
}

func (applicationState *application) createJiraSearchCommand() *cobra.Command {
	var filter jira.SearchFilter

	searchCommand := &cobra.Command{
		Use:   jiraSearchUse,
		Short: jiraSearchShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			if filter.Assignee == "me" {
				filter.Assignee = "currentUser()"
			}
			issues, searchError := jiraClient.SearchIssues(command.Context(), filter)
			if searchError != nil {
				return searchError
			}
			printIssueList(command, issues)
			return nil
		},
	}
	searchCommand.Flags().StringVarP(&filter.Project, projectFlagName, "p", "", projectFlagDescription)
	searchCommand.Flags().StringVarP(&filter.Assignee, assigneeFlagName, "a", "", assigneeFlagDescription)
	searchCommand.Flags().StringVarP(&filter.Status, statusFlagName, "s", "", statusFlagDescription)
	searchCommand.Flags().StringVar(&filter.JQL, jqlFlagName, "", jqlFlagDescription)
	searchCommand.Flags().IntVarP(&filter.MaxResults, limitFlagName, "n", jira.DefaultSearchLimit, limitFlagDescription)
	return searchCommand
}

func (applicationState *application) createJiraMineCommand() *cobra.Command {
	var limit int

	mineCommand := &cobra.Command{
		Use:   jiraMineUse,
		Short: jiraMineShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			issues, myIssuesError := jiraClient.MyIssues(command.Context(), limit)
			if myIssuesError != nil {
				return myIssuesError
			}
			printIssueList(command, issues)
			return nil
		},
	}
	mineCommand.Flags().IntVarP(&limit, limitFlagName, "n", jira.DefaultMyIssuesLimit, limitFlagDescription)
	return mineCommand
}

func (applicationState *application) createJiraCreateCommand() *cobra.Command {
	var fields jira.CreateIssueFields

	createCommand := &cobra.Command{
		Use:   jiraCreateUse,
		Short: jiraCreateShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			fields.Summary = arguments[0]
			issue, createError := jiraClient.CreateIssue(command.Context(), fields)
			if createError != nil {
				return createError
			}
			fmt.Fprintf(command.OutOrStdout(), "Created %s: %s\n%s\n", issue.Key, issue.Summary, issue.URL)
			return nil
		},
	}
	createCommand.Flags().StringVarP(&fields.Description, descriptionFlagName, "d", "", descriptionFlagDescription)
	createCommand.Flags().StringVarP(&fields.IssueType, issueTypeFlagName, "t", "Task", issueTypeFlagDescription)
	createCommand.Flags().StringVarP(&fields.Project, projectFlagName, "p", "", projectFlagDescription)
	createCommand.Flags().StringArrayVarP(&fields.Labels, labelFlagName, "l", nil, labelFlagDescription)
	createCommand.Flags().StringVar(&fields.Priority, priorityFlagName, "", priorityFlagDescription)
	return createCommand
}

func (applicationState *application) createJiraCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   jiraCommentUse,
		Short: jiraCommentShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			if commentError := jiraClient.AddComment(command.Context(), arguments[0], arguments[1]); commentError != nil {
				return commentError
			}
			fmt.Fprintf(command.OutOrStdout(), "Comment added to %s\n", arguments[0])
			return nil
		},
	}
}

func (applicationState *application) createJiraTransitionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   jiraTransitionUse,
		Short: jiraTransitionShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			if transitionError := jiraClient.TransitionIssue(command.Context(), arguments[0], arguments[1]); transitionError != nil {
				return transitionError
			}
			fmt.Fprintf(command.OutOrStdout(), "%s moved to %s\n", arguments[0], arguments[1])
			return nil
		},
	}
}

func (applicationState *application) createJiraProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   jiraProjectsUse,
		Short: jiraProjectsShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			jiraClient, clientError := applicationState.configuredJiraClient()
			if clientError != nil {
				return clientError
			}
			projects, projectsError := jiraClient.Projects(command.Context())
			if projectsError != nil {
				return projectsError
			}
			for _, project := range projects {
				fmt.Fprintf(command.OutOrStdout(), "%-12s %s\n", project.Key, project.Name)
			}
			if strings.TrimSpace(jiraClient.DefaultProject()) != "" {
				fmt.Fprintf(command.OutOrStdout(), "\nDefault project: %s\n", jiraClient.DefaultProject())
			}
			return nil
		},
	}
}
