// Package jira wraps the Jira REST API for issue lookup, creation, and workflow moves.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	restAPIPrefix = "/rest/api/2"

	// DefaultSearchLimit bounds searches when the caller does not set one.
	DefaultSearchLimit = 50
	// DefaultMyIssuesLimit bounds the current-user issue listing.
	DefaultMyIssuesLimit = 20

	// myIssuesJQL selects the current user's open work, most recently updated first.
	myIssuesJQL = "assignee = currentUser() AND resolution = Unresolved ORDER BY updated DESC"

	requestTimeout = 30 * time.Second
)

// httpClient abstracts the HTTP transport so tests can inject a fake.
type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Email          string
	APIToken       string
	DefaultProject string
	HTTPClient     httpClient
	Logger         *zap.Logger
}

// Client talks to one Jira instance using basic authentication.
type Client struct {
	baseURL        string
	email          string
	apiToken       string
	defaultProject string
	httpClient     httpClient
	logger         *zap.Logger
}

// Issue is the subset of a Jira issue the assistant works with.
type Issue struct {
	Key         string
	Summary     string
	Description string
	Status      string
	IssueType   string
	Priority    string
	Assignee    string
	Reporter    string
	Labels      []string
	Components  []string
	Created     string
	Updated     string
	URL         string
}

// Project identifies one accessible Jira project.
type Project struct {
	Key  string
	Name string
}

// SearchFilter narrows a search when no raw JQL is given.
type SearchFilter struct {
	JQL        string
	Project    string
	Assignee   string
	Status     string
	MaxResults int
}

// NewClient creates a Jira client from the provided options.
func NewClient(options Options) *Client {
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimRight(options.BaseURL, "/"),
		email:          options.Email,
		apiToken:       options.APIToken,
		defaultProject: options.DefaultProject,
		httpClient:     options.HTTPClient,
		logger:         options.Logger,
	}
}

// DefaultProject returns the configured default project key.
func (client *Client) DefaultProject() string {
	return client.defaultProject
}

// ToContext renders the issue as Markdown for inclusion in an LLM prompt.
func (issue Issue) ToContext() string {
	parts := []string{
		fmt.Sprintf("# Jira Issue: %s", issue.Key),
		fmt.Sprintf("**Summary:** %s", issue.Summary),
		fmt.Sprintf("**Type:** %s", issue.IssueType),
		fmt.Sprintf("**Status:** %s", issue.Status),
	}
	if issue.Priority != "" {
		parts = append(parts, fmt.Sprintf("**Priority:** %s", issue.Priority))
	}
	if issue.Assignee != "" {
		parts = append(parts, fmt.Sprintf("**Assignee:** %s", issue.Assignee))
	}
	if len(issue.Labels) > 0 {
		parts = append(parts, fmt.Sprintf("**Labels:** %s", strings.Join(issue.Labels, ", ")))
	}
	if len(issue.Components) > 0 {
		parts = append(parts, fmt.Sprintf("**Components:** %s", strings.Join(issue.Components, ", ")))
	}
	if issue.Description != "" {
		parts = append(parts, fmt.Sprintf("\n## Description\n%s", issue.Description))
	}
	return strings.Join(parts, "\n")
}

// GetIssue fetches one issue by key, for example "PROJ-123".
func (client *Client) GetIssue(requestContext context.Context, issueKey string) (Issue, error) {
	var decodedIssue issuePayload
	requestError := client.doJSON(requestContext, http.MethodGet, restAPIPrefix+"/issue/"+url.PathEscape(issueKey), nil, &decodedIssue)
	if requestError != nil {
		return Issue{}, fmt.Errorf("get issue %s: %w", issueKey, requestError)
	}
	return client.parseIssue(decodedIssue), nil
}

// SearchIssues runs a JQL search. When the filter carries no raw JQL, one is
// built from the project, assignee, and status fields; an empty filter lists
// everything ordered by update time.
func (client *Client) SearchIssues(requestContext context.Context, filter SearchFilter) ([]Issue, error) {
	jqlQuery := filter.JQL
	if jqlQuery == "" {
		jqlQuery = client.buildJQL(filter)
	}
	maxResults := filter.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultSearchLimit
	}

	queryValues := url.Values{}
	queryValues.Set("jql", jqlQuery)
	queryValues.Set("maxResults", strconv.Itoa(maxResults))

	var decodedResponse struct {
		Issues []issuePayload `json:"issues"`
	}
	requestError := client.doJSON(requestContext, http.MethodGet, restAPIPrefix+"/search?"+queryValues.Encode(), nil, &decodedResponse)
	if requestError != nil {
		return nil, fmt.Errorf("search issues: %w", requestError)
	}

	issues := make([]Issue, 0, len(decodedResponse.Issues))
	for _, decodedIssue := range decodedResponse.Issues {
		issues = append(issues, client.parseIssue(decodedIssue))
	}
	return issues, nil
}

// MyIssues lists the current user's unresolved issues, most recently updated first.
func (client *Client) MyIssues(requestContext context.Context, maxResults int) ([]Issue, error) {
	if maxResults <= 0 {
		maxResults = DefaultMyIssuesLimit
	}
	return client.SearchIssues(requestContext, SearchFilter{JQL: myIssuesJQL, MaxResults: maxResults})
}

// CreateIssueFields describes a new issue.
type CreateIssueFields struct {
	Summary     string
	Description string
	IssueType   string
	Project     string
	Labels      []string
	Priority    string
}

// CreateIssue creates an issue and returns the fully fetched result. The
// configured default project is used when the fields name none.
func (client *Client) CreateIssue(requestContext context.Context, fields CreateIssueFields) (Issue, error) {
	projectKey := fields.Project
	if projectKey == "" {
		projectKey = client.defaultProject
	}
	if projectKey == "" {
		return Issue{}, fmt.Errorf("no project specified and no default project configured")
	}
	issueType := fields.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	requestFields := map[string]any{
		"project":   map[string]string{"key": projectKey},
		"summary":   fields.Summary,
		"issuetype": map[string]string{"name": issueType},
	}
	if fields.Description != "" {
		requestFields["description"] = fields.Description
	}
	if len(fields.Labels) > 0 {
		requestFields["labels"] = fields.Labels
	}
	if fields.Priority != "" {
		requestFields["priority"] = map[string]string{"name": fields.Priority}
	}

	var createdResponse struct {
		Key string `json:"key"`
	}
	createError := client.doJSON(requestContext, http.MethodPost, restAPIPrefix+"/issue", map[string]any{"fields": requestFields}, &createdResponse)
	if createError != nil {
		return Issue{}, fmt.Errorf("create issue: %w", createError)
	}
	return client.GetIssue(requestContext, createdResponse.Key)
}

// AddComment appends a comment to an issue.
func (client *Client) AddComment(requestContext context.Context, issueKey string, commentBody string) error {
	commentError := client.doJSON(requestContext, http.MethodPost, restAPIPrefix+"/issue/"+url.PathEscape(issueKey)+"/comment", map[string]string{"body": commentBody}, nil)
	if commentError != nil {
		return fmt.Errorf("add comment to %s: %w", issueKey, commentError)
	}
	return nil
}

// TransitionIssue moves an issue to the named status. The transition id is
// resolved by case-insensitive name; an unknown name yields an error listing
// the transitions the issue currently allows.
func (client *Client) TransitionIssue(requestContext context.Context, issueKey string, statusName string) error {
	transitionsPath := restAPIPrefix + "/issue/" + url.PathEscape(issueKey) + "/transitions"

	var decodedResponse struct {
		Transitions []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"transitions"`
	}
	listError := client.doJSON(requestContext, http.MethodGet, transitionsPath, nil, &decodedResponse)
	if listError != nil {
		return fmt.Errorf("list transitions for %s: %w", issueKey, listError)
	}

	transitionID := ""
	availableNames := make([]string, 0, len(decodedResponse.Transitions))
	for _, transition := range decodedResponse.Transitions {
		availableNames = append(availableNames, transition.Name)
		if strings.EqualFold(transition.Name, statusName) {
			transitionID = transition.ID
		}
	}
	if transitionID == "" {
		return fmt.Errorf("invalid status %q for %s: available transitions: %s", statusName, issueKey, strings.Join(availableNames, ", "))
	}

	applyError := client.doJSON(requestContext, http.MethodPost, transitionsPath, map[string]any{"transition": map[string]string{"id": transitionID}}, nil)
	if applyError != nil {
		return fmt.Errorf("transition %s to %q: %w", issueKey, statusName, applyError)
	}
	return nil
}

// Projects lists the projects the authenticated user can access.
func (client *Client) Projects(requestContext context.Context) ([]Project, error) {
	var decodedProjects []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	listError := client.doJSON(requestContext, http.MethodGet, restAPIPrefix+"/project", nil, &decodedProjects)
	if listError != nil {
		return nil, fmt.Errorf("list projects: %w", listError)
	}

	projects := make([]Project, 0, len(decodedProjects))
	for _, decodedProject := range decodedProjects {
		projects = append(projects, Project{Key: decodedProject.Key, Name: decodedProject.Name})
	}
	return projects, nil
}

// buildJQL assembles a query from filter fields, falling back to the configured
// default project when the filter names none.
func (client *Client) buildJQL(filter SearchFilter) string {
	var conditions []string
	if filter.Project != "" {
		conditions = append(conditions, fmt.Sprintf("project = %q", filter.Project))
	} else if client.defaultProject != "" {
		conditions = append(conditions, fmt.Sprintf("project = %q", client.defaultProject))
	}
	if filter.Assignee != "" {
		conditions = append(conditions, fmt.Sprintf("assignee = %s", filter.Assignee))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = %q", filter.Status))
	}
	if len(conditions) == 0 {
		return "ORDER BY updated DESC"
	}
	return strings.Join(conditions, " AND ")
}

// issuePayload mirrors the REST representation of an issue.
type issuePayload struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Status      struct {
			Name string `json:"name"`
		} `json:"status"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Reporter *struct {
			DisplayName string `json:"displayName"`
		} `json:"reporter"`
		Labels     []string `json:"labels"`
		Components []struct {
			Name string `json:"name"`
		} `json:"components"`
		Created string `json:"created"`
		Updated string `json:"updated"`
	} `json:"fields"`
}

// parseIssue converts the REST representation into the flat Issue type.
func (client *Client) parseIssue(payload issuePayload) Issue {
	issue := Issue{
		Key:         payload.Key,
		Summary:     payload.Fields.Summary,
		Description: payload.Fields.Description,
		Status:      payload.Fields.Status.Name,
		IssueType:   payload.Fields.IssueType.Name,
		Labels:      payload.Fields.Labels,
		Created:     payload.Fields.Created,
		Updated:     payload.Fields.Updated,
		URL:         fmt.Sprintf("%s/browse/%s", client.baseURL, payload.Key),
	}
	if payload.Fields.Priority != nil {
		issue.Priority = payload.Fields.Priority.Name
	}
	if payload.Fields.Assignee != nil {
		issue.Assignee = payload.Fields.Assignee.DisplayName
	}
	if payload.Fields.Reporter != nil {
		issue.Reporter = payload.Fields.Reporter.DisplayName
	}
	for _, component := range payload.Fields.Components {
		issue.Components = append(issue.Components, component.Name)
	}
	return issue
}

// doJSON sends one authenticated request and decodes the JSON response into
// target when target is non-nil.
func (client *Client) doJSON(requestContext context.Context, method string, path string, requestPayload any, target any) error {
	var requestBody io.Reader
	if requestPayload != nil {
		encodedPayload, encodeError := json.Marshal(requestPayload)
		if encodeError != nil {
			return fmt.Errorf("encode request: %w", encodeError)
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	httpRequest, requestError := http.NewRequestWithContext(requestContext, method, client.baseURL+path, requestBody)
	if requestError != nil {
		return fmt.Errorf("build request: %w", requestError)
	}
	httpRequest.SetBasicAuth(client.email, client.apiToken)
	httpRequest.Header.Set("Accept", "application/json")
	if requestPayload != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}

	httpResponse, doError := client.httpClient.Do(httpRequest)
	if doError != nil {
		return fmt.Errorf("send request: %w", doError)
	}
	defer func() {
		if closeError := httpResponse.Body.Close(); closeError != nil {
			client.logger.Warn("close response body", zap.Error(closeError))
		}
	}()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return fmt.Errorf("read response: %w", readError)
	}
	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("jira returned status %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(responseBody)))
	}
	if target == nil || len(responseBody) == 0 {
		return nil
	}
	if decodeError := json.Unmarshal(responseBody, target); decodeError != nil {
		return fmt.Errorf("decode response: %w", decodeError)
	}
	return nil
}
