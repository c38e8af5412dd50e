// Package triage turns emailed feature requests and bug reports into
// pending requests that can be reviewed and filed as issues.
package triage

import (
	"fmt"
	"strings"
	"time"
)

// Request types
const (
	TypeBug     = "bug"
	TypeFeature = "feature"
)

// Priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Request statuses
const (
	StatusPending       = "pending"
	StatusRejected      = "rejected"
	StatusCreated       = "created"
	StatusError         = "error"
	StatusPendingGitHub = "pending-github"
)

// Parsed is the structured form of an email body
type Parsed struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Labels      []string `json:"labels"`
}

// Request is one emailed request and its review state
type Request struct {
	ID          string
	ReceivedAt  time.Time
	Raw         string
	Parsed      Parsed
	Status      string
	Processed   bool
	IssueNumber int
}

// Parse extracts type, priority, title and labels from an email body. The
// last line mentioning a type keyword decides the type.
func Parse(content string) Parsed {
	lines := strings.Split(content, "\n")
	p := Parsed{Type: TypeFeature, Priority: PriorityMedium}

	for _, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "bug"), strings.Contains(lower, "error"), strings.Contains(lower, "issue"):
			p.Type = TypeBug
		case strings.Contains(lower, "feature"), strings.Contains(lower, "enhancement"):
			p.Type = TypeFeature
		}

		switch {
		case strings.Contains(lower, "urgent"), strings.Contains(lower, "critical"):
			p.Priority = PriorityHigh
		case strings.Contains(lower, "low priority"), strings.Contains(lower, "nice to have"):
			p.Priority = PriorityLow
		}

		if p.Title == "" && strings.TrimSpace(line) != "" {
			p.Title = strings.TrimSpace(line)
		}
	}

	if len(lines) > 1 {
		p.Description = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}

	if p.Type == TypeBug {
		p.Labels = append(p.Labels, "bug")
	} else {
		p.Labels = append(p.Labels, "enhancement")
	}
	p.Labels = append(p.Labels, "priority:"+p.Priority, "email-request")
	return p
}

// IssueTitle is the title used when filing r
func (r Request) IssueTitle() string {
	return fmt.Sprintf("[%s] %s", r.Parsed.Type, r.Parsed.Title)
}

// IssueBody renders the markdown body used when filing r
func (r Request) IssueBody() string {
	var b strings.Builder
	b.WriteString("## Email Request\n\n")
	fmt.Fprintf(&b, "**Received:** %s\n", r.ReceivedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "**Type:** %s\n", r.Parsed.Type)
	fmt.Fprintf(&b, "**Priority:** %s\n\n", r.Parsed.Priority)
	b.WriteString("## Description\n\n")
	b.WriteString(r.Parsed.Description)
	b.WriteString("\n\n---\n\n### Original Email Content\n```\n")
	b.WriteString(r.Raw)
	b.WriteString("\n```\n")
	return b.String()
}

// Template returns the email template for a request type
func Template(kind string) string {
	if kind == TypeBug {
		return bugTemplate
	}
	return featureTemplate
}

const featureTemplate = `Subject: Feature Request - [Brief description]

Feature Title: [Clear, concise title]

Description:
[Detailed description of what you want]

Use Case:
[Why this feature would be helpful]

Priority: [High/Medium/Low]
`

const bugTemplate = `Subject: Bug Report - [Brief description]

Bug Title: [Clear, concise title]

Steps to Reproduce:
1. [First step]
2. [Second step]

Expected Behavior:
[What should happen]

Actual Behavior:
[What actually happens]

Priority: [High/Medium/Low]
`
