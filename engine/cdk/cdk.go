// Package cdk is an Engine that renders a plan into an AWS CDK stack and
// synthesizes it to a CloudFormation cloud assembly.
//
// The jsii runtime backing aws-cdk-go is not safe for concurrent use, so
// every call into the engine is serialized.
package cdk

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipelineactions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
)

// AdministratorPolicy is the managed policy attached to admin build projects.
const AdministratorPolicy = "AdministratorAccess"

// Options configures the CDK app.
type Options struct {
	// StackName defaults to the pipeline name once ProvisionPipeline runs,
	// or "EnvPipeline" when resources are provisioned first.
	StackName string
	// Outdir is where Synth writes the cloud assembly. Empty means a
	// temporary directory chosen by the CDK.
	Outdir  string
	Account string
	Region  string
}

// Engine renders plan resources into CDK constructs.
type Engine struct {
	mu    sync.Mutex
	app   awscdk.App
	stack awscdk.Stack

	buckets      map[string]awss3.IBucket
	identities   map[string]awscloudfront.OriginAccessIdentity
	distribution map[string]awscloudfront.CloudFrontWebDistribution
	certificates map[string]awscertificatemanager.ICertificate
	zones        map[string]awsroute53.IHostedZone
	topics       map[string]awssns.ITopic
	projects     map[string]awscodebuild.PipelineProject
	parameters   map[string]awsssm.IStringParameter

	pipelines map[string]awscodepipeline.Pipeline
	artifacts map[string]awscodepipeline.Artifact
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine with an empty app and stack.
func New(opts Options) *Engine {
	appProps := &awscdk.AppProps{}
	if opts.Outdir != "" {
		appProps.Outdir = jsii.String(opts.Outdir)
	}
	app := awscdk.NewApp(appProps)

	name := opts.StackName
	if name == "" {
		name = "EnvPipeline"
	}
	stackProps := &awscdk.StackProps{StackName: jsii.String(name)}
	if opts.Account != "" || opts.Region != "" {
		stackProps.Env = &awscdk.Environment{
			Account: optional(opts.Account),
			Region:  optional(opts.Region),
		}
	}

	return &Engine{
		app:          app,
		stack:        awscdk.NewStack(app, jsii.String(name), stackProps),
		buckets:      make(map[string]awss3.IBucket),
		identities:   make(map[string]awscloudfront.OriginAccessIdentity),
		distribution: make(map[string]awscloudfront.CloudFrontWebDistribution),
		certificates: make(map[string]awscertificatemanager.ICertificate),
		zones:        make(map[string]awsroute53.IHostedZone),
		topics:       make(map[string]awssns.ITopic),
		projects:     make(map[string]awscodebuild.PipelineProject),
		parameters:   make(map[string]awsssm.IStringParameter),
		pipelines:    make(map[string]awscodepipeline.Pipeline),
		artifacts:    make(map[string]awscodepipeline.Artifact),
	}
}

// Stack returns the stack resources are added to.
func (e *Engine) Stack() awscdk.Stack { return e.stack }

// Synth writes the cloud assembly and returns its directory.
func (e *Engine) Synth() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var dir string
	err := guard(func() {
		assembly := e.app.Synth(nil)
		dir = *assembly.Directory()
	})
	return dir, err
}

// Provision implements engine.Engine.
func (e *Engine) Provision(ctx context.Context, r plan.Resource, deps engine.Handles) (engine.Handle, error) {
	if err := r.Validate(); err != nil {
		return engine.Handle{}, err
	}
	if err := ctx.Err(); err != nil {
		return engine.Handle{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		h    engine.Handle
		perr error
	)
	if err := guard(func() { h, perr = e.provision(r) }); err != nil {
		return engine.Handle{}, err
	}
	return h, perr
}

func (e *Engine) provision(r plan.Resource) (engine.Handle, error) {
	id := jsii.String(r.ID)
	h := engine.Handle{ID: r.ID, Attributes: map[string]string{}}

	switch r.Kind {
	case plan.ResourceStore:
		var bucket awss3.IBucket
		if r.Import != nil {
			bucket = awss3.Bucket_FromBucketName(e.stack, id, jsii.String(r.Import.Name))
		} else {
			props := &awss3.BucketProps{Versioned: jsii.Bool(r.Store.Versioned)}
			if r.Store.BlockPublicAccess {
				props.BlockPublicAccess = awss3.BlockPublicAccess_BLOCK_ALL()
			}
			bucket = awss3.NewBucket(e.stack, id, props)
		}
		e.buckets[r.ID] = bucket
		h.Attributes[plan.AttrARN] = *bucket.BucketArn()

	case plan.ResourceAccessIdentity:
		bucket, err := e.bucket(r.AccessIdentity.Store)
		if err != nil {
			return h, err
		}
		oai := awscloudfront.NewOriginAccessIdentity(e.stack, id, &awscloudfront.OriginAccessIdentityProps{
			Comment: jsii.String(r.AccessIdentity.Comment),
		})
		bucket.GrantRead(oai, nil)
		e.identities[r.ID] = oai

	case plan.ResourceDistribution:
		d, err := e.newDistribution(id, r.Distribution)
		if err != nil {
			return h, err
		}
		e.distribution[r.ID] = d
		h.Attributes[plan.AttrDomainName] = *d.DistributionDomainName()

	case plan.ResourceAliasRecord:
		zone, ok := e.zones[r.AliasRecord.Zone.Resource]
		if !ok {
			return h, fmt.Errorf("unknown hosted zone %s", r.AliasRecord.Zone)
		}
		d, ok := e.distribution[r.AliasRecord.Target.Resource]
		if !ok {
			return h, fmt.Errorf("unknown distribution %s", r.AliasRecord.Target)
		}
		awsroute53.NewCnameRecord(e.stack, id, &awsroute53.CnameRecordProps{
			Zone:       zone,
			RecordName: jsii.String(r.AliasRecord.RecordName),
			DomainName: d.DistributionDomainName(),
		})

	case plan.ResourceBuildProject:
		p, err := e.newProject(id, r.BuildProject)
		if err != nil {
			return h, err
		}
		e.projects[r.ID] = p
		h.Attributes[plan.AttrARN] = *p.ProjectArn()

	case plan.ResourceCertificate:
		e.certificates[r.ID] = awscertificatemanager.Certificate_FromCertificateArn(e.stack, id, jsii.String(r.Import.ARN))
		h.Attributes[plan.AttrARN] = r.Import.ARN

	case plan.ResourceHostedZone:
		e.zones[r.ID] = awsroute53.HostedZone_FromHostedZoneAttributes(e.stack, id, &awsroute53.HostedZoneAttributes{
			HostedZoneId: jsii.String(r.Import.ID),
			ZoneName:     jsii.String(r.Import.Name),
		})

	case plan.ResourceParameter:
		param := awsssm.StringParameter_FromStringParameterName(e.stack, id, jsii.String(r.Import.Name))
		e.parameters[r.ID] = param
		h.Attributes[plan.AttrARN] = *param.ParameterArn()

	case plan.ResourceTopic:
		e.topics[r.ID] = awssns.Topic_FromTopicArn(e.stack, id, jsii.String(r.Import.ARN))
		h.Attributes[plan.AttrARN] = r.Import.ARN
	}
	return h, nil
}

func (e *Engine) newDistribution(id *string, d *plan.DistributionProps) (awscloudfront.CloudFrontWebDistribution, error) {
	bucket, err := e.bucket(d.Origin.Store)
	if err != nil {
		return nil, err
	}
	oai, ok := e.identities[d.Origin.AccessIdentity.Resource]
	if !ok {
		return nil, fmt.Errorf("unknown access identity %s", d.Origin.AccessIdentity)
	}
	cert, ok := e.certificates[d.ViewerCertificate.Certificate.Resource]
	if !ok {
		return nil, fmt.Errorf("unknown certificate %s", d.ViewerCertificate.Certificate)
	}

	errorResponses := make([]*awscloudfront.CfnDistribution_CustomErrorResponseProperty, len(d.ErrorResponses))
	for i, er := range d.ErrorResponses {
		errorResponses[i] = &awscloudfront.CfnDistribution_CustomErrorResponseProperty{
			ErrorCode:        jsii.Number(er.ErrorCode),
			ResponsePagePath: jsii.String(er.ResponsePagePath),
		}
	}

	return awscloudfront.NewCloudFrontWebDistribution(e.stack, id, &awscloudfront.CloudFrontWebDistributionProps{
		OriginConfigs: &[]*awscloudfront.SourceConfiguration{{
			S3OriginSource: &awscloudfront.S3OriginConfig{
				S3BucketSource:       bucket,
				OriginAccessIdentity: oai,
			},
			Behaviors: &[]*awscloudfront.Behavior{{
				IsDefaultBehavior: jsii.Bool(true),
				ForwardedValues: &awscloudfront.CfnDistribution_ForwardedValuesProperty{
					QueryString: jsii.Bool(d.DefaultBehavior.ForwardQueryString),
					Cookies: &awscloudfront.CfnDistribution_CookiesProperty{
						Forward: jsii.String(d.DefaultBehavior.ForwardCookies),
					},
				},
			}},
		}},
		DefaultRootObject:    jsii.String(d.DefaultRootObject),
		ErrorConfigurations:  &errorResponses,
		Comment:              jsii.String(d.Comment),
		PriceClass:           awscloudfront.PriceClass(d.PriceClass),
		ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy(d.ViewerProtocolPolicy),
		ViewerCertificate: awscloudfront.ViewerCertificate_FromAcmCertificate(cert, &awscloudfront.ViewerCertificateOptions{
			Aliases:        jsii.Strings(d.ViewerCertificate.Aliases...),
			SecurityPolicy: awscloudfront.SecurityPolicyProtocol(d.ViewerCertificate.SecurityPolicy),
			SslMethod:      awscloudfront.SSLMethod(d.ViewerCertificate.SSLMethod),
		}),
	}), nil
}

func (e *Engine) newProject(id *string, b *plan.BuildProjectProps) (awscodebuild.PipelineProject, error) {
	artifacts, err := e.bucket(b.Artifacts)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]*awscodebuild.BuildEnvironmentVariable, len(b.Variables)+2)
	for _, v := range b.Variables {
		vars[v.Name] = &awscodebuild.BuildEnvironmentVariable{Value: jsii.String(v.Value)}
	}
	var creds []awsssm.IStringParameter
	if c := b.Credentials; c != nil {
		for i, ref := range []plan.Ref{c.AccessKeyID, c.SecretAccessKey} {
			param, ok := e.parameters[ref.Resource]
			if !ok {
				return nil, fmt.Errorf("unknown parameter %s", ref)
			}
			vars[types.DeployCredentialVariables[i]] = &awscodebuild.BuildEnvironmentVariable{
				Type:  awscodebuild.BuildEnvironmentVariableType_PARAMETER_STORE,
				Value: param.ParameterName(),
			}
			creds = append(creds, param)
		}
	}
	spec := make(map[string]interface{}, len(b.BuildSpec))
	for k, v := range b.BuildSpec {
		spec[k] = v
	}

	project := awscodebuild.NewPipelineProject(e.stack, id, &awscodebuild.PipelineProjectProps{
		BuildSpec:            awscodebuild.BuildSpec_FromObject(&spec),
		EnvironmentVariables: &vars,
	})
	// Both scopes deploy from the artifacts store with the deploy key pair.
	artifacts.GrantReadWrite(project, nil)
	for _, param := range creds {
		param.GrantRead(project)
	}
	if b.Permissions == plan.PermissionsAdmin {
		project.Role().AddManagedPolicy(awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String(AdministratorPolicy)))
	}
	return project, nil
}

// ProvisionPipeline implements engine.Engine.
func (e *Engine) ProvisionPipeline(ctx context.Context, req engine.PipelineRequest, deps engine.Handles) (engine.Handle, error) {
	if err := ctx.Err(); err != nil {
		return engine.Handle{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var perr error
	if err := guard(func() { perr = e.newPipeline(req) }); err != nil {
		return engine.Handle{}, err
	}
	if perr != nil {
		return engine.Handle{}, perr
	}
	return engine.Handle{ID: req.ID}, nil
}

func (e *Engine) newPipeline(req engine.PipelineRequest) error {
	if len(req.Source.Actions) != 1 || req.Source.Actions[0].Source == nil {
		return fmt.Errorf("source stage must hold exactly one source action")
	}
	src := req.Source.Actions[0]
	bucket, err := e.bucket(src.Source.Store)
	if err != nil {
		return err
	}
	checkout := awscodepipeline.NewArtifact(jsii.String(src.Source.Output), nil)
	e.artifacts[src.Source.Output] = checkout

	p := awscodepipeline.NewPipeline(e.stack, jsii.String(req.ID), &awscodepipeline.PipelineProps{
		PipelineName:   jsii.String(req.Name),
		ArtifactBucket: bucket,
		Stages: &[]*awscodepipeline.StageProps{{
			StageName: jsii.String(req.Source.Name),
			Actions: &[]awscodepipeline.IAction{
				awscodepipelineactions.NewS3SourceAction(&awscodepipelineactions.S3SourceActionProps{
					ActionName: jsii.String(src.Name),
					RunOrder:   jsii.Number(src.RunOrder),
					Bucket:     bucket,
					BucketKey:  jsii.String(src.Source.Key),
					Output:     checkout,
				}),
			},
		}},
	})

	if n := req.Notifications; n != nil {
		topic, ok := e.topics[n.Topic.Resource]
		if !ok {
			return fmt.Errorf("unknown topic %s", n.Topic)
		}
		events := make([]interface{}, len(n.Events))
		for i, ev := range n.Events {
			events[i] = ev
		}
		p.OnStateChange(jsii.String("StateChange"), &awsevents.OnEventOptions{
			Target: awseventstargets.NewSnsTopic(topic, nil),
			EventPattern: &awsevents.EventPattern{
				Detail: &map[string]interface{}{"state": events},
			},
		})
	}
	e.pipelines[req.ID] = p
	return nil
}

// AddStage implements engine.Engine.
func (e *Engine) AddStage(ctx context.Context, pipeline engine.Handle, stage plan.Stage, deps engine.Handles) (engine.Handle, error) {
	if err := stage.CheckRunOrder(); err != nil {
		return engine.Handle{}, err
	}
	if err := ctx.Err(); err != nil {
		return engine.Handle{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pipelines[pipeline.ID]
	if !ok {
		return engine.Handle{}, fmt.Errorf("unknown pipeline %s", pipeline.ID)
	}
	actions := make([]awscodepipeline.IAction, 0, len(stage.Actions))
	var aerr error
	err := guard(func() {
		for _, a := range stage.Actions {
			var action awscodepipeline.IAction
			if action, aerr = e.action(a); aerr != nil {
				return
			}
			actions = append(actions, action)
		}
		p.AddStage(&awscodepipeline.StageOptions{
			StageName: jsii.String(stage.Name),
			Actions:   &actions,
		})
	})
	if err == nil {
		err = aerr
	}
	if err != nil {
		return engine.Handle{}, err
	}
	return engine.Handle{ID: pipeline.ID + "/" + stage.Name}, nil
}

func (e *Engine) action(a plan.Action) (awscodepipeline.IAction, error) {
	name := jsii.String(a.Name)
	runOrder := jsii.Number(a.RunOrder)

	switch a.Kind {
	case plan.ActionApproval:
		props := &awscodepipelineactions.ManualApprovalActionProps{ActionName: name, RunOrder: runOrder}
		if a.Approval != nil && a.Approval.NotificationTopic != nil {
			topic, ok := e.topics[a.Approval.NotificationTopic.Resource]
			if !ok {
				return nil, fmt.Errorf("unknown topic %s", a.Approval.NotificationTopic)
			}
			props.NotificationTopic = topic
		}
		return awscodepipelineactions.NewManualApprovalAction(props), nil

	case plan.ActionBuild:
		project, ok := e.projects[a.Build.Project.Resource]
		if !ok {
			return nil, fmt.Errorf("unknown build project %s", a.Build.Project)
		}
		input, err := e.artifact(a.Build.Input)
		if err != nil {
			return nil, err
		}
		return awscodepipelineactions.NewCodeBuildAction(&awscodepipelineactions.CodeBuildActionProps{
			ActionName: name,
			RunOrder:   runOrder,
			Project:    project,
			Input:      input,
		}), nil

	case plan.ActionDeploy:
		bucket, err := e.bucket(a.Deploy.Store)
		if err != nil {
			return nil, err
		}
		input, err := e.artifact(a.Deploy.Input)
		if err != nil {
			return nil, err
		}
		return awscodepipelineactions.NewS3DeployAction(&awscodepipelineactions.S3DeployActionProps{
			ActionName: name,
			RunOrder:   runOrder,
			Bucket:     bucket,
			Input:      input,
			Extract:    jsii.Bool(a.Deploy.Extract),
			ObjectKey:  jsii.String(a.Deploy.ObjectKey),
		}), nil
	}
	return nil, fmt.Errorf("action %s: kind %s cannot appear outside the source stage", a.Name, a.Kind)
}

func (e *Engine) bucket(ref plan.Ref) (awss3.IBucket, error) {
	b, ok := e.buckets[ref.Resource]
	if !ok {
		return nil, fmt.Errorf("unknown store %s", ref)
	}
	return b, nil
}

func (e *Engine) artifact(name string) (awscodepipeline.Artifact, error) {
	a, ok := e.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("unknown artifact %q", name)
	}
	return a, nil
}

// Constructs returns the construct paths added to the stack, sorted.
func (e *Engine) Constructs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var paths []string
	for _, c := range *e.stack.Node().Children() {
		var node constructs.Node = c.Node()
		paths = append(paths, *node.Id())
	}
	sort.Strings(paths)
	return paths
}

// guard turns jsii panics into errors. The CDK reports invalid construct
// trees by throwing, which surfaces in Go as a panic.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return jsii.String(s)
}
