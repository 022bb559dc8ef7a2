package catalog

import (
	"time"

	"github.com/petrocom/permit-workflow/internal/domain/entity"
)

// Default escalation thresholds per stage kind. Review-heavy stages get more
// headroom than clerical ones.
const (
	intakeThreshold   = 3 * 24 * time.Hour
	clericalThreshold = 5 * 24 * time.Hour
	reviewThreshold   = 7 * 24 * time.Hour
	decisionThreshold = 10 * 24 * time.Hour
)

// Default builds the catalog with the built-in workflow definitions for all
// supported application types. Stage sequences are strictly linear; the
// payment flag on a stage gates advancing into it.
func Default() *Catalog {
	return NewBuilder().
		Register(WorkflowDefinition{
			Type: entity.TypeRegularPermit,
			Stages: []StageDefinition{
				{Name: "Application Submission", Role: entity.RoleRegistryOfficer, EscalateAfter: intakeThreshold},
				{Name: "Document Verification", Role: entity.RoleDocumentOfficer, RequiresDocuments: true, EscalateAfter: clericalThreshold},
				{Name: "Payment Processing", Role: entity.RoleFinanceOfficer, EscalateAfter: clericalThreshold},
				{Name: "Technical Review", Role: entity.RoleTechnicalOfficer, RequiresPayment: true, EscalateAfter: reviewThreshold},
				{Name: "Compliance Review", Role: entity.RoleComplianceOfficer, EscalateAfter: reviewThreshold},
				{Name: "Final Approval", Role: entity.RoleDirector, EscalateAfter: decisionThreshold},
				{Name: "Certificate Generation", Role: entity.RoleRegistryOfficer, EscalateAfter: clericalThreshold},
			},
		}).
		Register(WorkflowDefinition{
			Type: entity.TypeRotatorPermit,
			Stages: []StageDefinition{
				{Name: "Application Submission", Role: entity.RoleRegistryOfficer, EscalateAfter: intakeThreshold},
				{Name: "Document Verification", Role: entity.RoleDocumentOfficer, RequiresDocuments: true, EscalateAfter: clericalThreshold},
				{Name: "Payment Processing", Role: entity.RoleFinanceOfficer, EscalateAfter: clericalThreshold},
				{Name: "Background Check", Role: entity.RoleSecurityOfficer, RequiresPayment: true, EscalateAfter: clericalThreshold},
				{Name: "Final Approval", Role: entity.RoleDirector, EscalateAfter: decisionThreshold},
				{Name: "Forward to GIS", Role: entity.RoleRegistryOfficer, EscalateAfter: clericalThreshold},
			},
		}).
		Register(WorkflowDefinition{
			Type: entity.TypeCompanyRegistration,
			Stages: []StageDefinition{
				{Name: "Application Submission", Role: entity.RoleRegistryOfficer, EscalateAfter: intakeThreshold},
				{Name: "Document Verification", Role: entity.RoleDocumentOfficer, RequiresDocuments: true, EscalateAfter: clericalThreshold},
				{Name: "Payment Processing", Role: entity.RoleFinanceOfficer, EscalateAfter: clericalThreshold},
				{Name: "Due Diligence Review", Role: entity.RoleComplianceOfficer, RequiresPayment: true, EscalateAfter: reviewThreshold},
				{Name: "Final Approval", Role: entity.RoleDirector, EscalateAfter: decisionThreshold},
				{Name: "Certificate Generation", Role: entity.RoleRegistryOfficer, EscalateAfter: clericalThreshold},
			},
		}).
		Register(WorkflowDefinition{
			Type: entity.TypeJVCompliance,
			Stages: []StageDefinition{
				{Name: "Plan Submission", Role: entity.RoleRegistryOfficer, EscalateAfter: intakeThreshold},
				{Name: "Document Verification", Role: entity.RoleDocumentOfficer, RequiresDocuments: true, EscalateAfter: clericalThreshold},
				{Name: "Joint Venture Review", Role: entity.RoleTechnicalOfficer, EscalateAfter: reviewThreshold},
				{Name: "Compliance Assessment", Role: entity.RoleComplianceOfficer, EscalateAfter: reviewThreshold},
				{Name: "Final Approval", Role: entity.RoleDirector, EscalateAfter: decisionThreshold},
			},
		}).
		Register(WorkflowDefinition{
			Type: entity.TypeLocalContent,
			Stages: []StageDefinition{
				{Name: "Plan Submission", Role: entity.RoleRegistryOfficer, EscalateAfter: intakeThreshold},
				{Name: "Document Verification", Role: entity.RoleDocumentOfficer, RequiresDocuments: true, EscalateAfter: clericalThreshold},
				{Name: "Local Content Review", Role: entity.RoleTechnicalOfficer, EscalateAfter: reviewThreshold},
				{Name: "Committee Evaluation", Role: entity.RoleCommittee, EscalateAfter: reviewThreshold},
				{Name: "Final Approval", Role: entity.RoleDirector, EscalateAfter: decisionThreshold},
			},
		}).
		Build()
}
