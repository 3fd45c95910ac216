package aggregator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pders01/folio/internal/github"
)

type eventPayload struct {
	Action      string `json:"action"`
	Ref         string `json:"ref"`
	RefType     string `json:"ref_type"`
	Size        int    `json:"size"`
	PullRequest *struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"pull_request"`
	Issue *struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"issue"`
	Release *struct {
		TagName string `json:"tag_name"`
	} `json:"release"`
}

// summarizeEvent renders a one-line description of a public event.
func summarizeEvent(e github.Event) string {
	var p eventPayload
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &p)
	}
	repo := e.Repo.Name
	action := p.Action
	if action == "" {
		action = "updated"
	}

	switch e.Type {
	case "PushEvent":
		ref := strings.TrimPrefix(p.Ref, "refs/heads/")
		commits := "commits"
		if p.Size == 1 {
			commits = "commit"
		}
		if ref != "" {
			return fmt.Sprintf("Pushed %d %s to %s in %s", p.Size, commits, ref, repo)
		}
		return fmt.Sprintf("Pushed %d %s to %s", p.Size, commits, repo)
	case "CreateEvent":
		if p.RefType == "repository" || p.Ref == "" {
			return "Created repository " + repo
		}
		return fmt.Sprintf("Created %s %s in %s", p.RefType, p.Ref, repo)
	case "DeleteEvent":
		return fmt.Sprintf("Deleted %s %s in %s", p.RefType, p.Ref, repo)
	case "PullRequestEvent":
		if p.PullRequest != nil {
			return fmt.Sprintf("%s pull request #%d in %s: %s", capitalize(action), p.PullRequest.Number, repo, p.PullRequest.Title)
		}
		return fmt.Sprintf("%s a pull request in %s", capitalize(action), repo)
	case "IssuesEvent":
		if p.Issue != nil {
			return fmt.Sprintf("%s issue #%d in %s: %s", capitalize(action), p.Issue.Number, repo, p.Issue.Title)
		}
		return fmt.Sprintf("%s an issue in %s", capitalize(action), repo)
	case "IssueCommentEvent":
		if p.Issue != nil {
			return fmt.Sprintf("Commented on #%d in %s", p.Issue.Number, repo)
		}
		return "Commented in " + repo
	case "WatchEvent":
		return "Starred " + repo
	case "ForkEvent":
		return "Forked " + repo
	case "ReleaseEvent":
		if p.Release != nil {
			return fmt.Sprintf("%s release %s of %s", capitalize(action), p.Release.TagName, repo)
		}
		return "Released " + repo
	default:
		return fmt.Sprintf("%s in %s", strings.TrimSuffix(e.Type, "Event"), repo)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
