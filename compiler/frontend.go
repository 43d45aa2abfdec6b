package compiler

import (
	"strings"

	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
)

// Distribution settings shared by every CDN environment.
const (
	ViewerProtocolRedirectToHTTPS = "redirect-to-https"
	SecurityPolicyTLS12_2018      = "TLSv1.2_2018"
	SSLMethodSNI                  = "sni-only"
	ForwardCookiesNone            = "none"
	RecordTypeCNAME               = "CNAME"
)

// FrontendCDNPipelineProps configures a front-end CDN pipeline.
type FrontendCDNPipelineProps struct {
	BasePipelineProps
	Environments []types.EnvironmentSpec

	// Certificate is the ARN of an issued certificate covering every alias.
	Certificate string
	// HostedZone is required when any environment registers its alias in AWS.
	HostedZone types.HostedZoneRef
}

// NewFrontendCDNPipeline compiles, for every environment in input order, an
// origin store, an access identity, an edge distribution, an alias record
// when the domain is registered in AWS, and a deploy stage that runs an
// optional "Approve" approval followed by a deploy into the origin store.
func NewFrontendCDNPipeline(props FrontendCDNPipelineProps) (*plan.Pipeline, error) {
	props.Variant = types.VariantFrontendCDN

	if props.Certificate == "" {
		return nil, configErr("", "certificate", ErrMissingCertificate)
	}

	check := func(env types.EnvironmentSpec) []error {
		return validateFrontendEnv(env, props.HostedZone)
	}
	ids, err := checkEnvironments(props.Environments, check)
	if err != nil {
		return nil, err
	}

	base, err := NewBasePipeline(props.BasePipelineProps)
	if err != nil {
		return nil, err
	}

	base.addShared(plan.Resource{
		ID:     CertificateID,
		Kind:   plan.ResourceCertificate,
		Import: &plan.ImportProps{ARN: props.Certificate},
	})
	if registersAlias(props.Environments) {
		base.addShared(plan.Resource{
			ID:     HostedZoneID,
			Kind:   plan.ResourceHostedZone,
			Import: &plan.ImportProps{ID: props.HostedZone.ID, Name: props.HostedZone.Name},
		})
	}

	for _, env := range props.Environments {
		if err := compileFrontendEnv(base, ids[env.Name], env); err != nil {
			return nil, err
		}
	}
	return base.Pipeline(), nil
}

func validateFrontendEnv(env types.EnvironmentSpec, zone types.HostedZoneRef) []error {
	var errs []error
	if len(env.Aliases) == 0 {
		errs = append(errs, configErr(env.Name, "aliases", ErrEmptyAliasList))
	}
	for i, a := range env.Aliases {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, configErrf(env.Name, "aliases", ErrEmptyAliasList, "alias %d is blank", i))
		}
	}
	if env.CloudfrontPriceClass != "" && !types.ValidPriceClass(env.CloudfrontPriceClass) {
		errs = append(errs, configErrf(env.Name, "cloudfrontPriceClass", ErrUnknownPriceClass,
			"%q (known: %s, %s, %s)", env.CloudfrontPriceClass, types.PriceClass100, types.PriceClass200, types.PriceClassAll))
	}
	if env.DomainNameRegistrar == types.RegistrarAWS && zone.IsZero() {
		errs = append(errs, configErr(env.Name, "domainNameRegistrar", ErrMissingHostedZone))
	}
	return errs
}

func registersAlias(envs []types.EnvironmentSpec) bool {
	for _, env := range envs {
		if env.DomainNameRegistrar == types.RegistrarAWS {
			return true
		}
	}
	return false
}

func compileFrontendEnv(base *BasePipeline, id string, env types.EnvironmentSpec) error {
	primary := env.Aliases[0]

	store := plan.Resource{
		ID:          id + "OriginBucket",
		Kind:        plan.ResourceStore,
		Environment: env.Name,
		Store:       &plan.StoreProps{BlockPublicAccess: true},
	}

	identity := plan.Resource{
		ID:          id + "OriginAccessIdentity",
		Kind:        plan.ResourceAccessIdentity,
		Environment: env.Name,
		AccessIdentity: &plan.AccessIdentityProps{
			Store:   plan.Ref{Resource: store.ID},
			Comment: "Origin Access Identity for " + primary,
		},
	}

	distribution := plan.Resource{
		ID:          id + "WebDistribution",
		Kind:        plan.ResourceDistribution,
		Environment: env.Name,
		Distribution: &plan.DistributionProps{
			Origin: plan.Origin{
				Store:          plan.Ref{Resource: store.ID},
				AccessIdentity: plan.Ref{Resource: identity.ID},
			},
			DefaultBehavior: plan.Behavior{
				ForwardQueryString: true,
				ForwardCookies:     ForwardCookiesNone,
			},
			DefaultRootObject: orDefault(env.DefaultRootObject, types.DefaultRootObject),
			// Status 200 on purpose: every response falls through to the
			// app's own client-side router instead of a provider error page.
			ErrorResponses: []plan.ErrorResponse{{
				ErrorCode:        200,
				ResponsePagePath: orDefault(env.ErrorRootObject, types.DefaultRootObject),
			}},
			Comment:              "Cloudfront Distribution for " + primary,
			PriceClass:           orDefault(env.CloudfrontPriceClass, types.PriceClass100),
			ViewerProtocolPolicy: ViewerProtocolRedirectToHTTPS,
			ViewerCertificate: plan.ViewerCert{
				Certificate:    plan.Ref{Resource: CertificateID},
				SecurityPolicy: SecurityPolicyTLS12_2018,
				SSLMethod:      SSLMethodSNI,
				Aliases:        append([]string(nil), env.Aliases...),
			},
		},
	}

	bundle := &plan.ResourceBundle{
		Store:          store,
		AccessIdentity: identity,
		Distribution:   distribution,
	}

	// External registrars get no record; the alias is registered out of band.
	if env.DomainNameRegistrar == types.RegistrarAWS {
		bundle.AliasRecord = &plan.Resource{
			ID:          id + "CnameRecord",
			Kind:        plan.ResourceAliasRecord,
			Environment: env.Name,
			AliasRecord: &plan.AliasRecordProps{
				Zone:       plan.Ref{Resource: HostedZoneID},
				RecordName: primary,
				RecordType: RecordTypeCNAME,
				Target:     plan.Ref{Resource: distribution.ID, Attribute: plan.AttrDomainName},
			},
		}
	}

	var seq plan.Sequencer
	var actions []plan.Action
	if env.ApprovalRequired {
		actions = append(actions, base.CreateManualApprovalAction(ApprovalOptions{
			ActionName: "Approve",
			RunOrder:   seq.Next(),
		}))
	}
	actions = append(actions, plan.Action{
		Kind:     plan.ActionDeploy,
		Name:     "Deploy",
		RunOrder: seq.Next(),
		Deploy: &plan.DeployConfig{
			Store:     plan.Ref{Resource: store.ID},
			Input:     base.CheckoutSource(),
			Extract:   true,
			ObjectKey: env.Name,
		},
	})

	return base.commit(plan.EnvironmentPlan{
		Name:      env.Name,
		StageName: id + "Deploy",
		Bundle:    bundle,
	}, actions)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
