package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/validate"
)

// MultiEnvPipelineProps configures a generic build pipeline.
type MultiEnvPipelineProps struct {
	BasePipelineProps
	Environments []types.EnvironmentSpec
}

// NewMultiEnvPipeline compiles one stage per environment, in input order.
// Each stage runs an optional "Approve" approval followed by a build action
// bound to the environment's build project, so build and deploy are merged
// into a single stage for every environment.
//
// Every environment is validated before anything is planned. When any
// environment is invalid, the errors of all invalid environments are
// returned together and no plan is produced.
func NewMultiEnvPipeline(props MultiEnvPipelineProps) (*plan.Pipeline, error) {
	props.Variant = types.VariantGeneric

	ids, err := checkEnvironments(props.Environments, validateGenericEnv)
	if err != nil {
		return nil, err
	}

	base, err := NewBasePipeline(props.BasePipelineProps)
	if err != nil {
		return nil, err
	}

	for _, env := range props.Environments {
		if err := compileGenericEnv(base, ids[env.Name], env); err != nil {
			return nil, err
		}
	}
	return base.Pipeline(), nil
}

func validateGenericEnv(env types.EnvironmentSpec) []error {
	var errs []error
	problems, err := validate.ValidateBuildSpec(env.BuildSpec)
	if err != nil {
		errs = append(errs, configErr(env.Name, "buildSpec", fmt.Errorf("%w: %v", ErrInvalidBuildSpec, err)))
	} else if len(problems) > 0 {
		errs = append(errs, configErrf(env.Name, "buildSpec", ErrInvalidBuildSpec, "%s", strings.Join(problems, "; ")))
	}
	for _, name := range types.DeployCredentialVariables {
		if _, ok := env.RuntimeVariables[name]; ok {
			errs = append(errs, configErrf(env.Name, "runtimeVariables", ErrReservedVariable, "%s", name))
		}
	}
	return errs
}

func compileGenericEnv(base *BasePipeline, id string, env types.EnvironmentSpec) error {
	names := env.DeployCredentialParameters()
	params := []plan.Resource{
		{
			ID:          id + "DootstrapperCoreDeployAccessKeyId",
			Kind:        plan.ResourceParameter,
			Environment: env.Name,
			Import:      &plan.ImportProps{Name: names.AccessKeyIDParameter},
		},
		{
			ID:          id + "DootstrapperCoreDeploySecretAccessKey",
			Kind:        plan.ResourceParameter,
			Environment: env.Name,
			Import:      &plan.ImportProps{Name: names.SecretAccessKeyParameter},
		},
	}

	project := plan.Resource{
		ID:          id + "PipelineProject",
		Kind:        plan.ResourceBuildProject,
		Environment: env.Name,
		BuildProject: &plan.BuildProjectProps{
			BuildSpec:   env.BuildSpec,
			Variables:   sortedVariables(env.RuntimeVariables),
			Permissions: permissionScope(env.AdminPermissions),
			Artifacts:   base.ArtifactsStore(),
			Credentials: &plan.DeployCredentials{
				AccessKeyID:     plan.Ref{Resource: params[0].ID},
				SecretAccessKey: plan.Ref{Resource: params[1].ID},
			},
		},
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
		Kind:     plan.ActionBuild,
		Name:     "Build",
		RunOrder: seq.Next(),
		Build: &plan.BuildConfig{
			Project: plan.Ref{Resource: project.ID},
			Input:   base.CheckoutSource(),
		},
	})

	return base.commit(plan.EnvironmentPlan{
		Name:         env.Name,
		StageName:    id + "Deploy",
		Parameters:   params,
		BuildProject: &project,
	}, actions)
}

func permissionScope(admin bool) plan.PermissionScope {
	if admin {
		return plan.PermissionsAdmin
	}
	return plan.PermissionsScoped
}

func sortedVariables(vars map[string]string) []plan.EnvVar {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]plan.EnvVar, 0, len(names))
	for _, k := range names {
		out = append(out, plan.EnvVar{Name: k, Value: vars[k]})
	}
	return out
}

// checkEnvironments runs the collision pass and then check on every
// environment, returning the identifier base of each name. A collision
// aborts the run straight away; any other problems are gathered from every
// environment first.
func checkEnvironments(envs []types.EnvironmentSpec, check func(types.EnvironmentSpec) []error) (map[string]string, error) {
	names := make([]string, len(envs))
	for i, env := range envs {
		names[i] = env.Name
	}
	ids, err := CheckCollisions(names)
	if IsCollision(err) {
		return nil, err
	}

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, env := range envs {
		errs = append(errs, check(env)...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ids, nil
}
