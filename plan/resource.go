package plan

import "fmt"

// ResourceKind tags the variant held by a Resource.
type ResourceKind string

const (
	ResourceStore          ResourceKind = "Store"
	ResourceAccessIdentity ResourceKind = "AccessIdentity"
	ResourceDistribution   ResourceKind = "Distribution"
	ResourceAliasRecord    ResourceKind = "AliasRecord"
	ResourceBuildProject   ResourceKind = "BuildProject"
	ResourceCertificate    ResourceKind = "Certificate"
	ResourceHostedZone     ResourceKind = "HostedZone"
	ResourceTopic          ResourceKind = "Topic"
	ResourceParameter      ResourceKind = "Parameter"
)

// Attribute names a provider-issued value on a resource.
const (
	AttrDomainName = "DomainName"
	AttrARN        = "Arn"
)

// Ref points at another resource in the same plan, optionally at one of its
// provider-issued attributes.
type Ref struct {
	Resource  string `json:"resource" yaml:"resource"`
	Attribute string `json:"attribute,omitempty" yaml:"attribute,omitempty"`
}

func (r Ref) String() string {
	if r.Attribute == "" {
		return "${" + r.Resource + "}"
	}
	return "${" + r.Resource + "." + r.Attribute + "}"
}

// Resource is a resource-creation intent. Exactly one of the payload fields
// matching Kind is set.
type Resource struct {
	ID          string       `json:"id" yaml:"id"`
	Kind        ResourceKind `json:"kind" yaml:"kind"`
	Environment string       `json:"environment,omitempty" yaml:"environment,omitempty"`

	Store          *StoreProps          `json:"store,omitempty" yaml:"store,omitempty"`
	AccessIdentity *AccessIdentityProps `json:"accessIdentity,omitempty" yaml:"accessIdentity,omitempty"`
	Distribution   *DistributionProps   `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	AliasRecord    *AliasRecordProps    `json:"aliasRecord,omitempty" yaml:"aliasRecord,omitempty"`
	BuildProject   *BuildProjectProps   `json:"buildProject,omitempty" yaml:"buildProject,omitempty"`
	Import         *ImportProps         `json:"import,omitempty" yaml:"import,omitempty"`
}

// StoreProps describes an object store. Origin stores are created empty and
// private.
type StoreProps struct {
	BlockPublicAccess bool `json:"blockPublicAccess" yaml:"blockPublicAccess"`
	Versioned         bool `json:"versioned,omitempty" yaml:"versioned,omitempty"`
}

// AccessIdentityProps binds a store to an edge distribution.
type AccessIdentityProps struct {
	Store   Ref    `json:"store" yaml:"store"`
	Comment string `json:"comment" yaml:"comment"`
}

// DistributionProps describes an edge distribution with a single store origin.
type DistributionProps struct {
	Origin               Origin          `json:"origin" yaml:"origin"`
	DefaultBehavior      Behavior        `json:"defaultBehavior" yaml:"defaultBehavior"`
	DefaultRootObject    string          `json:"defaultRootObject" yaml:"defaultRootObject"`
	ErrorResponses       []ErrorResponse `json:"errorResponses" yaml:"errorResponses"`
	Comment              string          `json:"comment" yaml:"comment"`
	PriceClass           string          `json:"priceClass" yaml:"priceClass"`
	ViewerProtocolPolicy string          `json:"viewerProtocolPolicy" yaml:"viewerProtocolPolicy"`
	ViewerCertificate    ViewerCert      `json:"viewerCertificate" yaml:"viewerCertificate"`
}

// Origin is the store a distribution reads from and the identity it uses.
type Origin struct {
	Store          Ref `json:"store" yaml:"store"`
	AccessIdentity Ref `json:"accessIdentity" yaml:"accessIdentity"`
}

// Behavior is the distribution's default cache behavior.
type Behavior struct {
	ForwardQueryString bool   `json:"forwardQueryString" yaml:"forwardQueryString"`
	ForwardCookies     string `json:"forwardCookies" yaml:"forwardCookies"`
}

// ErrorResponse maps an HTTP status to a page served in its place.
type ErrorResponse struct {
	ErrorCode        int    `json:"errorCode" yaml:"errorCode"`
	ResponsePagePath string `json:"responsePagePath" yaml:"responsePagePath"`
}

// ViewerCert configures TLS for viewers.
type ViewerCert struct {
	Certificate    Ref      `json:"certificate" yaml:"certificate"`
	SecurityPolicy string   `json:"securityPolicy" yaml:"securityPolicy"`
	SSLMethod      string   `json:"sslMethod" yaml:"sslMethod"`
	Aliases        []string `json:"aliases" yaml:"aliases"`
}

// AliasRecordProps maps a DNS name to a distribution's issued domain name.
type AliasRecordProps struct {
	Zone       Ref    `json:"zone" yaml:"zone"`
	RecordName string `json:"recordName" yaml:"recordName"`
	RecordType string `json:"recordType" yaml:"recordType"`
	Target     Ref    `json:"target" yaml:"target"`
}

// PermissionScope is the permission set granted to a build project.
type PermissionScope string

const (
	PermissionsAdmin  PermissionScope = "admin"
	PermissionsScoped PermissionScope = "scoped"
)

// EnvVar is a plaintext build environment variable.
type EnvVar struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// BuildProjectProps describes a build project running an opaque build spec.
// Every project may read and write the artifacts store and read its deploy
// credentials, whatever its permission scope.
type BuildProjectProps struct {
	BuildSpec   map[string]any     `json:"buildSpec" yaml:"buildSpec"`
	Variables   []EnvVar           `json:"variables,omitempty" yaml:"variables,omitempty"`
	Permissions PermissionScope    `json:"permissions" yaml:"permissions"`
	Artifacts   Ref                `json:"artifacts" yaml:"artifacts"`
	Credentials *DeployCredentials `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// DeployCredentials points at the parameters holding a deploy key pair.
type DeployCredentials struct {
	AccessKeyID     Ref `json:"accessKeyId" yaml:"accessKeyId"`
	SecretAccessKey Ref `json:"secretAccessKey" yaml:"secretAccessKey"`
}

// ImportProps references a resource that already exists outside the plan.
type ImportProps struct {
	ARN  string `json:"arn,omitempty" yaml:"arn,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// References returns every Ref the resource depends on.
func (r Resource) References() []Ref {
	switch {
	case r.AccessIdentity != nil:
		return []Ref{r.AccessIdentity.Store}
	case r.Distribution != nil:
		d := r.Distribution
		return []Ref{d.Origin.Store, d.Origin.AccessIdentity, d.ViewerCertificate.Certificate}
	case r.AliasRecord != nil:
		return []Ref{r.AliasRecord.Zone, r.AliasRecord.Target}
	case r.BuildProject != nil:
		refs := []Ref{r.BuildProject.Artifacts}
		if c := r.BuildProject.Credentials; c != nil {
			refs = append(refs, c.AccessKeyID, c.SecretAccessKey)
		}
		return refs
	}
	return nil
}

// Validate checks that the payload matches Kind.
func (r Resource) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("resource of kind %s has no id", r.Kind)
	}
	var ok bool
	switch r.Kind {
	case ResourceStore:
		ok = r.Store != nil || r.Import != nil
	case ResourceAccessIdentity:
		ok = r.AccessIdentity != nil
	case ResourceDistribution:
		ok = r.Distribution != nil
	case ResourceAliasRecord:
		ok = r.AliasRecord != nil
	case ResourceBuildProject:
		ok = r.BuildProject != nil
	case ResourceCertificate, ResourceHostedZone, ResourceTopic, ResourceParameter:
		ok = r.Import != nil
	default:
		return fmt.Errorf("resource %s: unknown kind %q", r.ID, r.Kind)
	}
	if !ok {
		return fmt.Errorf("resource %s: payload does not match kind %s", r.ID, r.Kind)
	}
	return nil
}
