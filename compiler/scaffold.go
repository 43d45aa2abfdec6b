package compiler

import (
	"errors"
	"fmt"

	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/util"
)

// Logical IDs of the resources every pipeline shares.
const (
	ArtifactsStoreID    = "ArtifactsBucket"
	NotificationTopicID = "NotificationTopic"
	CertificateID       = "Certificate"
	HostedZoneID        = "HostedZone"

	SourceStageName = "Source"
	CheckoutName    = "Checkout"
)

var pipelineEvents = []string{"STARTED", "SUCCEEDED", "FAILED", "CANCELED", "SUPERSEDED"}

// BasePipelineProps configures the pieces shared by every pipeline variant.
type BasePipelineProps struct {
	Name    string
	Variant types.Variant

	// ArtifactsBucket names an existing bucket holding the source artifact.
	// When empty the pipeline plans its own versioned artifacts store.
	ArtifactsBucket    string
	ArtifactsSourceKey string

	NotificationsType types.NotificationsType
	NotificationTopic string
}

// ApprovalOptions configures a manual approval action.
type ApprovalOptions struct {
	ActionName string
	RunOrder   int
}

// BasePipeline owns the shared pipeline, the checkout artifact every deploy
// reads from, and the notification wiring. The variant compilers append
// their stages to it.
type BasePipeline struct {
	pipeline   *plan.Pipeline
	stageNames map[string]bool
	topic      *plan.Ref
}

// NewBasePipeline creates the scaffold: shared resources and the source stage.
func NewBasePipeline(props BasePipelineProps) (*BasePipeline, error) {
	id, err := util.Derive(props.Name, "Pipeline")
	if err != nil {
		return nil, configErr("", "name", err)
	}
	if props.ArtifactsSourceKey == "" {
		return nil, configErr("", "artifacts.sourceKey", ErrMissingSourceKey)
	}

	p := &plan.Pipeline{
		Name:    props.Name,
		ID:      id,
		Variant: string(props.Variant),
	}

	store := plan.Resource{ID: ArtifactsStoreID, Kind: plan.ResourceStore}
	if props.ArtifactsBucket != "" {
		store.Import = &plan.ImportProps{Name: props.ArtifactsBucket}
	} else {
		store.Store = &plan.StoreProps{BlockPublicAccess: true, Versioned: true}
	}
	p.Shared = append(p.Shared, store)

	bp := &BasePipeline{
		pipeline:   p,
		stageNames: map[string]bool{SourceStageName: true},
	}

	if props.NotificationsType == types.NotificationsSNS {
		if props.NotificationTopic == "" {
			return nil, configErr("", "notifications.topic", fmt.Errorf("topic is required when notifications type is sns"))
		}
		p.Shared = append(p.Shared, plan.Resource{
			ID:     NotificationTopicID,
			Kind:   plan.ResourceTopic,
			Import: &plan.ImportProps{ARN: props.NotificationTopic},
		})
		bp.topic = &plan.Ref{Resource: NotificationTopicID}
		p.Notifications = &plan.Notifications{Topic: *bp.topic, Events: pipelineEvents}
	}

	p.Source = plan.Stage{
		Name: SourceStageName,
		Actions: []plan.Action{{
			Kind:     plan.ActionSource,
			Name:     CheckoutName,
			RunOrder: 1,
			Source: &plan.SourceConfig{
				Store:  plan.Ref{Resource: ArtifactsStoreID},
				Key:    props.ArtifactsSourceKey,
				Output: CheckoutName,
			},
		}},
	}

	return bp, nil
}

// Pipeline returns the plan under construction.
func (b *BasePipeline) Pipeline() *plan.Pipeline { return b.pipeline }

// CheckoutSource returns the name of the artifact the source stage produces.
func (b *BasePipeline) CheckoutSource() string { return CheckoutName }

// ArtifactsStore references the store the source artifact lives in.
func (b *BasePipeline) ArtifactsStore() plan.Ref { return plan.Ref{Resource: ArtifactsStoreID} }

// CreateManualApprovalAction builds an approval action. The caller inserts
// it into a stage at the run order it was given.
func (b *BasePipeline) CreateManualApprovalAction(opts ApprovalOptions) plan.Action {
	a := plan.Action{
		Kind:     plan.ActionApproval,
		Name:     opts.ActionName,
		RunOrder: opts.RunOrder,
	}
	if b.topic != nil {
		topic := *b.topic
		a.Approval = &plan.ApprovalConfig{NotificationTopic: &topic}
	}
	return a
}

// AddStage appends a stage to the pipeline.
func (b *BasePipeline) AddStage(name string, actions []plan.Action) error {
	if b.stageNames[name] {
		return configErrf("", "stageName", ErrDuplicateStageName, "%s", name)
	}
	stage := plan.Stage{Name: name, Actions: actions}
	if err := stage.CheckRunOrder(); err != nil {
		return err
	}
	b.stageNames[name] = true
	b.pipeline.Stages = append(b.pipeline.Stages, stage)
	return nil
}

// addShared registers a pipeline-wide resource.
func (b *BasePipeline) addShared(r plan.Resource) {
	b.pipeline.Shared = append(b.pipeline.Shared, r)
}

// commit appends a fully compiled environment: its stage first, then its
// resources. Nothing is recorded when the stage is rejected.
func (b *BasePipeline) commit(env plan.EnvironmentPlan, actions []plan.Action) error {
	if err := b.AddStage(env.StageName, actions); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) && ce.Environment == "" {
			ce.Environment = env.Name
		}
		return err
	}
	b.pipeline.Environments = append(b.pipeline.Environments, env)
	return nil
}
