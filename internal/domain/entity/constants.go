package entity

// Role identifies who may act on a stage.
type Role string

const (
	RoleRegistryOfficer   Role = "registry_officer"
	RoleDocumentOfficer   Role = "document_officer"
	RoleFinanceOfficer    Role = "finance_officer"
	RoleTechnicalOfficer  Role = "technical_officer"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleSecurityOfficer   Role = "security_officer"
	RoleCommittee         Role = "committee"
	RoleSupervisor        Role = "supervisor"
	RoleDirector          Role = "director"

	// RoleApplicant is the submitting party. It never owns a stage; it only
	// appears on submission audit entries and notification targets.
	RoleApplicant Role = "applicant"

	// RoleSystem is reserved for automated actors such as the escalation
	// monitor. It never owns a stage.
	RoleSystem Role = "system"
)

var validRoles = map[Role]bool{
	RoleRegistryOfficer:   true,
	RoleDocumentOfficer:   true,
	RoleFinanceOfficer:    true,
	RoleTechnicalOfficer:  true,
	RoleComplianceOfficer: true,
	RoleSecurityOfficer:   true,
	RoleCommittee:         true,
	RoleSupervisor:        true,
	RoleDirector:          true,
	RoleApplicant:         true,
	RoleSystem:            true,
}

// supervisors maps each role to the role one level above it. Roles absent
// from the map have no supervisor; stages owned by them cannot be reassigned.
var supervisors = map[Role]Role{
	RoleRegistryOfficer:   RoleSupervisor,
	RoleDocumentOfficer:   RoleSupervisor,
	RoleFinanceOfficer:    RoleSupervisor,
	RoleTechnicalOfficer:  RoleSupervisor,
	RoleComplianceOfficer: RoleSupervisor,
	RoleSecurityOfficer:   RoleSupervisor,
	RoleCommittee:         RoleSupervisor,
	RoleSupervisor:        RoleDirector,
}

// IsValid returns true if the role is a known role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// SupervisorOf returns the supervisory role one level above the given role,
// or an empty role if none exists.
func SupervisorOf(r Role) Role {
	return supervisors[r]
}

// Action is a transition request kind handled by the transition engine.
type Action string

const (
	ActionSubmit      Action = "SUBMIT"
	ActionAdvance     Action = "ADVANCE"
	ActionReject      Action = "REJECT"
	ActionRequestInfo Action = "REQUEST_INFO"
	ActionReturnInfo  Action = "RETURN_INFO"
	ActionEscalate    Action = "ESCALATE"
	ActionReassign    Action = "REASSIGN"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// RequiresReason returns true for actions that must carry a reason.
func (a Action) RequiresReason() bool {
	switch a {
	case ActionReject, ActionRequestInfo, ActionEscalate:
		return true
	default:
		return false
	}
}

// SubState is the in-stage status modifier, orthogonal to the stage index.
type SubState string

const (
	SubStateNormal        SubState = "NORMAL"
	SubStateInfoRequested SubState = "INFO_REQUESTED"
	SubStateEscalated     SubState = "ESCALATED"
)

var validSubStates = map[SubState]bool{
	SubStateNormal:        true,
	SubStateInfoRequested: true,
	SubStateEscalated:     true,
}

// IsValid returns true if the sub-state is a known sub-state.
func (s SubState) IsValid() bool {
	return validSubStates[s]
}

// String returns the string representation of the sub-state.
func (s SubState) String() string {
	return string(s)
}

// Outcome is the terminal result of an application.
type Outcome string

const (
	OutcomeNone     Outcome = "NONE"
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
)

// IsTerminal returns true once an outcome has been decided.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeApproved || o == OutcomeRejected
}

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Notification template keys.
const (
	TemplateApplicationSubmitted  = "application_submitted"
	TemplateApplicationAdvanced   = "application_advanced"
	TemplateApplicationApproved   = "application_approved"
	TemplateApplicationRejected   = "application_rejected"
	TemplateInfoRequested         = "info_requested"
	TemplateApplicationEscalated  = "application_escalated"
	TemplateApplicationReassigned = "application_reassigned"
)
