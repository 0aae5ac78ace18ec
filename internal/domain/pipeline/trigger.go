package pipeline

import (
	"errors"
	"os"
	"strings"
)

const (
	// EventPullRequest is the change-proposal event the pipeline reacts to.
	EventPullRequest = "pull_request"
	// EventManual marks a run requested by hand. It matches every rule.
	EventManual = "manual"
)

// ErrTriggerIgnored means the event does not match the configured trigger rule.
var ErrTriggerIgnored = errors.New("trigger does not match the configured rule")

// Actor identifies who or what caused a run.
type Actor struct {
	// Hostname is the machine the trigger came from.
	Hostname string `yaml:"hostname,omitempty"`
	// Username is the account that sent it.
	Username string `yaml:"username,omitempty"`
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	switch {
	case a.Username != "" && a.Hostname != "":
		return a.Username + "@" + a.Hostname
	case a.Username != "":
		return a.Username
	case a.Hostname != "":
		return a.Hostname
	default:
		return "<unknown>"
	}
}

// Trigger is the version-control event that asked for a run.
type Trigger struct {
	// Event is the event name, e.g. pull_request.
	Event string `yaml:"event"`
	// BaseBranch is the branch the change targets.
	BaseBranch string `yaml:"base_branch"`
	// HeadRef is the branch carrying the change.
	HeadRef string `yaml:"head_ref,omitempty"`
	// Actor sent the trigger.
	Actor *Actor `yaml:"actor,omitempty"`
}

// TriggerFromEnvironment builds a trigger from GitHub Actions variables.
// It returns nil outside of a pull request workflow.
func TriggerFromEnvironment() *Trigger {
	event := strings.TrimSpace(os.Getenv("GITHUB_EVENT_NAME"))
	if event == "" {
		return nil
	}

	return &Trigger{
		Event:      event,
		BaseBranch: strings.TrimSpace(os.Getenv("GITHUB_BASE_REF")),
		HeadRef:    strings.TrimSpace(os.Getenv("GITHUB_HEAD_REF")),
		Actor: &Actor{
			Username: strings.TrimSpace(os.Getenv("GITHUB_ACTOR")),
		},
	}
}

// TriggerRule selects the events that start a run.
type TriggerRule struct {
	// Event is the accepted event name.
	Event string `yaml:"event"`
	// Branch is the protected branch the change must target.
	Branch string `yaml:"branch"`
}

// IsManual reports whether t is a manual run. A nil trigger is manual.
func (t *Trigger) IsManual() bool {
	return t == nil || strings.EqualFold(strings.TrimSpace(t.Event), EventManual)
}

// Matches reports whether t satisfies the rule. Manual runs always match.
func (r TriggerRule) Matches(t *Trigger) bool {
	if t.IsManual() {
		return true
	}

	if !strings.EqualFold(strings.TrimSpace(t.Event), r.Event) {
		return false
	}

	return strings.TrimPrefix(strings.TrimSpace(t.BaseBranch), "refs/heads/") == r.Branch
}
