package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newIssuePayload(issueKey string, summary string) map[string]any {
	return map[string]any{
		"key": issueKey,
		"fields": map[string]any{
			"summary":     summary,
			"description": "a description",
			"status":      map[string]string{"name": "In Progress"},
			"issuetype":   map[string]string{"name": "Bug"},
			"priority":    map[string]string{"name": "High"},
			"assignee":    map[string]string{"displayName": "Dana Developer"},
			"reporter":    map[string]string{"displayName": "Riley Reporter"},
			"labels":      []string{"backend"},
			"components":  []map[string]string{{"name": "api"}},
			"created":     "2026-08-01T10:00:00.000+0000",
			"updated":     "2026-08-20T10:00:00.000+0000",
		},
	}
}

func TestGetIssue(t *testing.T) {
	var receivedAuthorization string
	jiraServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/rest/api/2/issue/PROJ-123" {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		receivedAuthorization = request.Header.Get("Authorization")
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(newIssuePayload("PROJ-123", "fix the parser"))
	}))
	defer jiraServer.Close()

	client := NewClient(Options{BaseURL: jiraServer.URL, Email: "dev@example.com", APIToken: "token-1"})
	issue, getError := client.GetIssue(context.Background(), "PROJ-123")
	if getError != nil {
		t.Fatalf("GetIssue: %v", getError)
	}

	expectedCredentials := base64.StdEncoding.EncodeToString([]byte("dev@example.com:token-1"))
	if receivedAuthorization != "Basic "+expectedCredentials {
		t.Fatalf("expected basic auth header, got %q", receivedAuthorization)
	}

	if issue.Key != "PROJ-123" || issue.Summary != "fix the parser" {
		t.Fatalf("unexpected issue %+v", issue)
	}
	if issue.Priority != "High" || issue.Assignee != "Dana Developer" {
		t.Fatalf("expected optional fields parsed, got %+v", issue)
	}
	if issue.URL != jiraServer.URL+"/browse/PROJ-123" {
		t.Fatalf("unexpected issue URL %q", issue.URL)
	}
}

func TestSearchIssuesBuildsJQL(t *testing.T) {
	testCases := []struct {
		name           string
		defaultProject string
		filter         SearchFilter
		expectedJQL    string
	}{
		{
			name:        "raw jql passes through",
			filter:      SearchFilter{JQL: "project = X"},
			expectedJQL: "project = X",
		},
		{
			name:        "fields combine with AND",
			filter:      SearchFilter{Project: "PROJ", Assignee: "currentUser()", Status: "Done"},
			expectedJQL: `project = "PROJ" AND assignee = currentUser() AND status = "Done"`,
		},
		{
			name:           "default project fills in",
			defaultProject: "HOME",
			filter:         SearchFilter{Status: "Open"},
			expectedJQL:    `project = "HOME" AND status = "Open"`,
		},
		{
			name:        "empty filter orders by update time",
			filter:      SearchFilter{},
			expectedJQL: "ORDER BY updated DESC",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var receivedJQL string
			jiraServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				receivedJQL = request.URL.Query().Get("jql")
				responseWriter.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(responseWriter).Encode(map[string]any{
					"issues": []map[string]any{newIssuePayload("PROJ-1", "first")},
				})
			}))
			defer jiraServer.Close()

			client := NewClient(Options{BaseURL: jiraServer.URL, Email: "e", APIToken: "t", DefaultProject: testCase.defaultProject})
			issues, searchError := client.SearchIssues(context.Background(), testCase.filter)
			if searchError != nil {
				t.Fatalf("SearchIssues: %v", searchError)
			}
			if receivedJQL != testCase.expectedJQL {
				t.Fatalf("expected JQL %q, got %q", testCase.expectedJQL, receivedJQL)
			}
			if len(issues) != 1 || issues[0].Key != "PROJ-1" {
				t.Fatalf("unexpected issues %+v", issues)
			}
		})
	}
}

func TestMyIssuesUsesCurrentUserJQL(t *testing.T) {
	var receivedJQL string
	var receivedMaxResults string
	jiraServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		receivedJQL = request.URL.Query().Get("jql")
		receivedMaxResults = request.URL.Query().Get("maxResults")
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{"issues": []map[string]any{}})
	}))
	defer jiraServer.Close()

	client := NewClient(Options{BaseURL: jiraServer.URL, Email: "e", APIToken: "t"})
	if _, myIssuesError := client.MyIssues(context.Background(), 0); myIssuesError != nil {
		t.Fatalf("MyIssues: %v", myIssuesError)
	}

	if receivedJQL != myIssuesJQL {
		t.Fatalf("unexpected JQL %q", receivedJQL)
	}
	if receivedMaxResults != "20" {
		t.Fatalf("expected default limit 20, got %q", receivedMaxResults)
	}
}

func TestCreateIssueUsesDefaultProject(t *testing.T) {
	var createdFields map[string]any
	jiraServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		switch {
		case request.Method == http.MethodPost && request.URL.Path == "/rest/api/2/issue":
			requestBody, _ := io.ReadAll(request.Body)
			var payload map[string]any
			_ = json.Unmarshal(requestBody, &payload)
			createdFields = payload["fields"].(map[string]any)
			_ = json.NewEncoder(responseWriter).Encode(map[string]string{"key": "HOME-7"})
		case request.Method == http.MethodGet && request.URL.Path == "/rest/api/2/issue/HOME-7":
			_ = json.NewEncoder(responseWriter).Encode(newIssuePayload("HOME-7", "created summary"))
		default:
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
		}
	}))
	defer jiraServer.Close()

	client := NewClient(Options{BaseURL: jiraServer.URL, Email: "e", APIToken: "t", DefaultProject: "HOME"})
	issue, createError := client.CreateIssue(context.Background(), CreateIssueFields{Summary: "created summary"})
	if createError != nil {
		t.Fatalf("CreateIssue: %v", createError)
	}

	projectField := createdFields["project"].(map[string]any)
	if projectField["key"] != "HOME" {
		t.Fatalf("expected default project in create payload, got %v", projectField)
	}
	issueTypeField := createdFields["issuetype"].(map[string]any)
	if issueTypeField["name"] != "Task" {
		t.Fatalf("expected default issue type Task, got %v", issueTypeField)
	}
	if issue.Key != "HOME-7" {
		t.Fatalf("expected fetched created issue, got %+v", issue)
	}
}

func TestCreateIssueWithoutProject(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://unreachable.invalid", Email: "e", APIToken: "t"})
	if _, createError := client.CreateIssue(context.Background(), CreateIssueFields{Summary: "s"}); createError == nil {
		t.Fatalf("expected error without a project")
	}
}

func TestTransitionIssue(t *testing.T) {
	var appliedTransition map[string]any
	jiraServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/rest/api/2/issue/PROJ-1/transitions" {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		responseWriter.Header().Set("Content-Type", "application/json")
		if request.Method == http.MethodGet {
			_ = json.NewEncoder(responseWriter).Encode(map[string]any{
				"transitions": []map[string]string{
					{"id": "11", "name": "To Do"},
					{"id": "31", "name": "Done"},
				},
			})
			return
		}
		requestBody, _ := io.ReadAll(request.Body)
		_ = json.Unmarshal(requestBody, &appliedTransition)
		responseWriter.WriteHeader(http.StatusNoContent)
	}))
	defer jiraServer.Close()

	client := NewClient(Options{BaseURL: jiraServer.URL, Email: "e", APIToken: "t"})
	if transitionError := client.TransitionIssue(context.Background(), "PROJ-1", "done"); transitionError != nil {
		t.Fatalf("TransitionIssue: %v", transitionError)
	}

	transitionField := appliedTransition["transition"].(map[string]any)
	if transitionField["id"] != "31" {
		t.Fatalf("expected case-insensitive transition match, got %v", transitionField)
	}

	unknownError := client.TransitionIssue(context.Background(), "PROJ-1", "Archived")
	if unknownError == nil {
		t.Fatalf("expected error for unknown transition name")
	}
	if !strings.Contains(unknownError.Error(), "To Do") || !strings.Contains(unknownError.Error(), "Done") {
		t.Fatalf("expected available transitions in error, got %v", unknownError)
	}
}

func TestAddCommentAndProjects(t *testing.T) {
	var receivedComment map[string]string
	jiraServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		switch request.URL.Path {
		case "/rest/api/2/issue/PROJ-1/comment":
			requestBody, _ := io.ReadAll(request.Body)
			_ = json.Unmarshal(requestBody, &receivedComment)
			responseWriter.WriteHeader(http.StatusCreated)
		case "/rest/api/2/project":
			_ = json.NewEncoder(responseWriter).Encode([]map[string]string{
				{"key": "PROJ", "name": "Main Project"},
				{"key": "OPS", "name": "Operations"},
			})
		default:
			t.Errorf("unexpected path %q", request.URL.Path)
		}
	}))
	defer jiraServer.Close()

	client := NewClient(Options{BaseURL: jiraServer.URL, Email: "e", APIToken: "t"})
	if commentError := client.AddComment(context.Background(), "PROJ-1", "looks good"); commentError != nil {
		t.Fatalf("AddComment: %v", commentError)
	}
	if receivedComment["body"] != "looks good" {
		t.Fatalf("unexpected comment payload %v", receivedComment)
	}

	projects, projectsError := client.Projects(context.Background())
	if projectsError != nil {
		t.Fatalf("Projects: %v", projectsError)
	}
	if len(projects) != 2 || projects[0].Key != "PROJ" || projects[1].Name != "Operations" {
		t.Fatalf("unexpected projects %+v", projects)
	}
}

func TestIssueToContext(t *testing.T) {
	fullIssue := Issue{
		Key:         "PROJ-9",
		Summary:     "speed up indexing",
		Description: "walk is slow on large trees",
		Status:      "To Do",
		IssueType:   "Story",
		Priority:    "Medium",
		Assignee:    "Dana Developer",
		Labels:      []string{"perf", "indexing"},
		Components:  []string{"core"},
	}

	rendered := fullIssue.ToContext()
	expectedLines := []string{
		"# Jira Issue: PROJ-9",
		"**Summary:** speed up indexing",
		"**Type:** Story",
		"**Status:** To Do",
		"**Priority:** Medium",
		"**Assignee:** Dana Developer",
		"**Labels:** perf, indexing",
		"**Components:** core",
		"## Description",
		"walk is slow on large trees",
	}
	for _, expectedLine := range expectedLines {
		if !strings.Contains(rendered, expectedLine) {
			t.Fatalf("expected %q in rendered context:\n%s", expectedLine, rendered)
		}
	}

	sparseIssue := Issue{Key: "PROJ-10", Summary: "tiny", Status: "Done", IssueType: "Task"}
	sparseRendered := sparseIssue.ToContext()
	if strings.Contains(sparseRendered, "Priority") || strings.Contains(sparseRendered, "Description") {
		t.Fatalf("expected optional sections omitted, got:\n%s", sparseRendered)
	}
}
