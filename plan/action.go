package plan

// ActionKind tags the variant held by an Action.
type ActionKind string

const (
	ActionSource   ActionKind = "Source"
	ActionApproval ActionKind = "Approval"
	ActionBuild    ActionKind = "Build"
	ActionDeploy   ActionKind = "Deploy"
)

// Action is a single pipeline step. Exactly one payload matching Kind is set,
// except for approvals without a notification topic, which carry none.
type Action struct {
	Kind     ActionKind `json:"kind" yaml:"kind"`
	Name     string     `json:"name" yaml:"name"`
	RunOrder int        `json:"runOrder" yaml:"runOrder"`

	Source   *SourceConfig   `json:"source,omitempty" yaml:"source,omitempty"`
	Approval *ApprovalConfig `json:"approval,omitempty" yaml:"approval,omitempty"`
	Build    *BuildConfig    `json:"build,omitempty" yaml:"build,omitempty"`
	Deploy   *DeployConfig   `json:"deploy,omitempty" yaml:"deploy,omitempty"`
}

// SourceConfig reads an object from a store into an output artifact.
type SourceConfig struct {
	Store  Ref    `json:"store" yaml:"store"`
	Key    string `json:"key" yaml:"key"`
	Output string `json:"output" yaml:"output"`
}

// ApprovalConfig optionally notifies a topic when approval is pending.
type ApprovalConfig struct {
	NotificationTopic *Ref `json:"notificationTopic,omitempty" yaml:"notificationTopic,omitempty"`
}

// BuildConfig runs a build project against an input artifact.
type BuildConfig struct {
	Project Ref    `json:"project" yaml:"project"`
	Input   string `json:"input" yaml:"input"`
}

// DeployConfig copies an input artifact into a store.
type DeployConfig struct {
	Store     Ref    `json:"store" yaml:"store"`
	Input     string `json:"input" yaml:"input"`
	Extract   bool   `json:"extract" yaml:"extract"`
	ObjectKey string `json:"objectKey" yaml:"objectKey"`
}
