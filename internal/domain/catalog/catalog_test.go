package catalog

import (
	"testing"
	"time"

	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_RegisterValidation(t *testing.T) {
	valid := WorkflowDefinition{
		Type: "test_type",
		Stages: []StageDefinition{
			{Name: "Intake", Role: entity.RoleRegistryOfficer, EscalateAfter: time.Hour},
		},
	}

	tests := []struct {
		name string
		def  WorkflowDefinition
	}{
		{
			name: "empty type",
			def:  WorkflowDefinition{Stages: valid.Stages},
		},
		{
			name: "no stages",
			def:  WorkflowDefinition{Type: "empty_type"},
		},
		{
			name: "empty stage name",
			def: WorkflowDefinition{
				Type:   "bad_stage",
				Stages: []StageDefinition{{Role: entity.RoleRegistryOfficer, EscalateAfter: time.Hour}},
			},
		},
		{
			name: "unknown role",
			def: WorkflowDefinition{
				Type:   "bad_role",
				Stages: []StageDefinition{{Name: "Intake", Role: "janitor", EscalateAfter: time.Hour}},
			},
		},
		{
			name: "system role owns stage",
			def: WorkflowDefinition{
				Type:   "system_stage",
				Stages: []StageDefinition{{Name: "Intake", Role: entity.RoleSystem, EscalateAfter: time.Hour}},
			},
		},
		{
			name: "applicant role owns stage",
			def: WorkflowDefinition{
				Type:   "applicant_stage",
				Stages: []StageDefinition{{Name: "Intake", Role: entity.RoleApplicant, EscalateAfter: time.Hour}},
			},
		},
		{
			name: "missing escalation threshold",
			def: WorkflowDefinition{
				Type:   "no_threshold",
				Stages: []StageDefinition{{Name: "Intake", Role: entity.RoleRegistryOfficer}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() {
				NewBuilder().Register(tt.def)
			})
		})
	}

	t.Run("duplicate registration", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBuilder().Register(valid).Register(valid)
		})
	})

	t.Run("valid definition", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NewBuilder().Register(valid).Build()
		})
	})
}

func TestDefault_RegisteredTypes(t *testing.T) {
	cat := Default()

	wantCounts := map[entity.ApplicationType]int{
		entity.TypeRegularPermit:       7,
		entity.TypeRotatorPermit:       6,
		entity.TypeCompanyRegistration: 6,
		entity.TypeJVCompliance:        5,
		entity.TypeLocalContent:        5,
	}

	assert.Len(t, cat.Types(), len(wantCounts))
	for appType, want := range wantCounts {
		count, err := cat.StageCount(appType)
		require.NoError(t, err, appType)
		assert.Equal(t, want, count, appType)
	}
}

func TestDefault_RegularPermitStages(t *testing.T) {
	cat := Default()
	stages, err := cat.StagesFor(entity.TypeRegularPermit)
	require.NoError(t, err)

	wantNames := []string{
		"Application Submission",
		"Document Verification",
		"Payment Processing",
		"Technical Review",
		"Compliance Review",
		"Final Approval",
		"Certificate Generation",
	}
	require.Len(t, stages, len(wantNames))
	for i, name := range wantNames {
		assert.Equal(t, name, stages[i].Name)
	}

	// Technical Review is entered only after payment confirmation.
	assert.True(t, stages[3].RequiresPayment)
	assert.True(t, stages[1].RequiresDocuments)
	assert.Equal(t, entity.RoleDirector, stages[5].Role)
}

func TestDefault_EveryStageHasThreshold(t *testing.T) {
	cat := Default()
	for _, appType := range cat.Types() {
		stages, err := cat.StagesFor(appType)
		require.NoError(t, err)
		for _, stage := range stages {
			assert.Positive(t, stage.EscalateAfter, "%s/%s", appType, stage.Name)
		}
	}
}

func TestCatalog_UnknownType(t *testing.T) {
	cat := Default()

	_, err := cat.StagesFor("helicopter_permit")
	assert.ErrorIs(t, err, ErrUnknownApplicationType)

	_, err = cat.StageAt("helicopter_permit", 0)
	assert.ErrorIs(t, err, ErrUnknownApplicationType)

	_, err = cat.StageCount("helicopter_permit")
	assert.ErrorIs(t, err, ErrUnknownApplicationType)
}

func TestCatalog_StageAtBounds(t *testing.T) {
	cat := Default()

	stage, err := cat.StageAt(entity.TypeLocalContent, 4)
	require.NoError(t, err)
	assert.Equal(t, "Final Approval", stage.Name)

	_, err = cat.StageAt(entity.TypeLocalContent, 5)
	assert.Error(t, err)

	_, err = cat.StageAt(entity.TypeLocalContent, -1)
	assert.Error(t, err)
}

func TestCatalog_BuildCopiesStages(t *testing.T) {
	def := WorkflowDefinition{
		Type: "copy_check",
		Stages: []StageDefinition{
			{Name: "Intake", Role: entity.RoleRegistryOfficer, EscalateAfter: time.Hour},
		},
	}
	cat := NewBuilder().Register(def).Build()

	// Mutating the source slice must not leak into the built catalog.
	def.Stages[0].Name = "Mutated"

	stage, err := cat.StageAt("copy_check", 0)
	require.NoError(t, err)
	assert.Equal(t, "Intake", stage.Name)
}
