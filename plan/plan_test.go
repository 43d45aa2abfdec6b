package plan

import (
	"strings"
	"testing"
)

func TestSequencer(t *testing.T) {
	var s Sequencer
	for want := 1; want <= 3; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}

	var fresh Sequencer
	if got := fresh.Next(); got != 1 {
		t.Fatalf("new sequencer Next() = %d, want 1", got)
	}
}

func TestStage_CheckRunOrder(t *testing.T) {
	ok := Stage{Name: "ProdDeploy", Actions: []Action{
		{Kind: ActionApproval, Name: "Approve", RunOrder: 1},
		{Kind: ActionDeploy, Name: "Deploy", RunOrder: 2},
	}}
	if err := ok.CheckRunOrder(); err != nil {
		t.Fatalf("CheckRunOrder() error: %v", err)
	}

	gap := Stage{Name: "TestDeploy", Actions: []Action{
		{Kind: ActionDeploy, Name: "Deploy", RunOrder: 2},
	}}
	if err := gap.CheckRunOrder(); err == nil {
		t.Fatal("expected error for run order gap")
	}
}

func TestResourceBundle_Order(t *testing.T) {
	b := ResourceBundle{
		Store:          Resource{ID: "ProdOriginBucket", Kind: ResourceStore},
		AccessIdentity: Resource{ID: "ProdOriginAccessIdentity", Kind: ResourceAccessIdentity},
		Distribution:   Resource{ID: "ProdWebDistribution", Kind: ResourceDistribution},
	}
	if n := len(b.Resources()); n != 3 {
		t.Fatalf("Resources() without alias = %d, want 3", n)
	}

	b.AliasRecord = &Resource{ID: "ProdCnameRecord", Kind: ResourceAliasRecord}
	want := []ResourceKind{ResourceStore, ResourceAccessIdentity, ResourceDistribution, ResourceAliasRecord}
	for i, r := range b.Resources() {
		if r.Kind != want[i] {
			t.Errorf("Resources()[%d].Kind = %s, want %s", i, r.Kind, want[i])
		}
	}
}

func TestEnvironmentPlan_ParametersBeforeProject(t *testing.T) {
	creds := &DeployCredentials{
		AccessKeyID:     Ref{Resource: "TestDootstrapperCoreDeployAccessKeyId"},
		SecretAccessKey: Ref{Resource: "TestDootstrapperCoreDeploySecretAccessKey"},
	}
	project := Resource{ID: "TestPipelineProject", Kind: ResourceBuildProject, BuildProject: &BuildProjectProps{
		Artifacts:   Ref{Resource: "ArtifactsBucket"},
		Credentials: creds,
	}}
	env := EnvironmentPlan{
		Parameters: []Resource{
			{ID: creds.AccessKeyID.Resource, Kind: ResourceParameter, Import: &ImportProps{Name: "/test/a"}},
			{ID: creds.SecretAccessKey.Resource, Kind: ResourceParameter, Import: &ImportProps{Name: "/test/b"}},
		},
		BuildProject: &project,
	}

	var ids []string
	for _, r := range env.Resources() {
		ids = append(ids, r.ID)
	}
	want := []string{"TestDootstrapperCoreDeployAccessKeyId", "TestDootstrapperCoreDeploySecretAccessKey", "TestPipelineProject"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("Resources() = %v, want %v", ids, want)
	}
	if refs := project.References(); len(refs) != 3 {
		t.Errorf("References() = %v, want artifacts plus both credentials", refs)
	}
}

func TestResource_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       Resource
		wantErr bool
	}{
		{"store", Resource{ID: "A", Kind: ResourceStore, Store: &StoreProps{}}, false},
		{"imported store", Resource{ID: "A", Kind: ResourceStore, Import: &ImportProps{Name: "b"}}, false},
		{"mismatch", Resource{ID: "A", Kind: ResourceDistribution, Store: &StoreProps{}}, true},
		{"no id", Resource{Kind: ResourceStore, Store: &StoreProps{}}, true},
		{"unknown kind", Resource{ID: "A", Kind: "Queue"}, true},
		{"parameter", Resource{ID: "A", Kind: ResourceParameter, Import: &ImportProps{Name: "/test/key"}}, false},
		{"parameter without import", Resource{ID: "A", Kind: ResourceParameter}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRef_String(t *testing.T) {
	if got := (Ref{Resource: "ProdWebDistribution", Attribute: AttrDomainName}).String(); got != "${ProdWebDistribution.DomainName}" {
		t.Errorf("String() = %q", got)
	}
	if got := (Ref{Resource: "ProdOriginBucket"}).String(); got != "${ProdOriginBucket}" {
		t.Errorf("String() = %q", got)
	}
}
