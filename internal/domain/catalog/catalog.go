package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/petrocom/permit-workflow/internal/domain/entity"
)

// ErrUnknownApplicationType is returned when a type tag has no registered
// workflow definition.
var ErrUnknownApplicationType = errors.New("unknown application type")

// StageDefinition is one ordered step of a workflow: its display name, the
// role that acts on it, its entry preconditions, and the time-in-stage
// threshold past which the stage counts as a bottleneck.
type StageDefinition struct {
	Name              string
	Role              entity.Role
	RequiresPayment   bool
	RequiresDocuments bool
	EscalateAfter     time.Duration
}

// WorkflowDefinition is the ordered stage sequence for one application type.
type WorkflowDefinition struct {
	Type   entity.ApplicationType
	Stages []StageDefinition
}

// Catalog holds all workflow definitions keyed by application type.
// It is immutable after Build and safe for unsynchronized concurrent reads.
type Catalog struct {
	definitions map[entity.ApplicationType]WorkflowDefinition
}

// Builder assembles a catalog. Register panics on invalid definitions since
// catalogs are constructed once at process start from static data.
type Builder struct {
	definitions map[entity.ApplicationType]WorkflowDefinition
}

// NewBuilder creates an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{
		definitions: make(map[entity.ApplicationType]WorkflowDefinition),
	}
}

// Register adds a workflow definition to the builder.
func (b *Builder) Register(def WorkflowDefinition) *Builder {
	if def.Type == "" {
		panic("workflow definition has empty type")
	}
	if _, exists := b.definitions[def.Type]; exists {
		panic(fmt.Sprintf("duplicate workflow definition: %s", def.Type))
	}
	if len(def.Stages) == 0 {
		panic(fmt.Sprintf("workflow definition %s has no stages", def.Type))
	}
	for i, stage := range def.Stages {
		if stage.Name == "" {
			panic(fmt.Sprintf("workflow %s stage %d has empty name", def.Type, i))
		}
		if !stage.Role.IsValid() || stage.Role == entity.RoleSystem || stage.Role == entity.RoleApplicant {
			panic(fmt.Sprintf("workflow %s stage %q has invalid role %q", def.Type, stage.Name, stage.Role))
		}
		if stage.EscalateAfter <= 0 {
			panic(fmt.Sprintf("workflow %s stage %q has no escalation threshold", def.Type, stage.Name))
		}
	}

	b.definitions[def.Type] = def
	return b
}

// Build creates the immutable catalog.
func (b *Builder) Build() *Catalog {
	defs := make(map[entity.ApplicationType]WorkflowDefinition, len(b.definitions))
	for t, def := range b.definitions {
		stages := append([]StageDefinition{}, def.Stages...)
		defs[t] = WorkflowDefinition{Type: t, Stages: stages}
	}
	return &Catalog{definitions: defs}
}

// StagesFor returns the ordered stage sequence for an application type.
func (c *Catalog) StagesFor(appType entity.ApplicationType) ([]StageDefinition, error) {
	def, ok := c.definitions[appType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApplicationType, appType)
	}
	return def.Stages, nil
}

// StageAt returns a single stage definition by index.
func (c *Catalog) StageAt(appType entity.ApplicationType, index int) (StageDefinition, error) {
	stages, err := c.StagesFor(appType)
	if err != nil {
		return StageDefinition{}, err
	}
	if index < 0 || index >= len(stages) {
		return StageDefinition{}, fmt.Errorf("stage index %d out of range for %s (%d stages)", index, appType, len(stages))
	}
	return stages[index], nil
}

// StageCount returns the number of stages for an application type.
func (c *Catalog) StageCount(appType entity.ApplicationType) (int, error) {
	stages, err := c.StagesFor(appType)
	if err != nil {
		return 0, err
	}
	return len(stages), nil
}

// Types returns all registered application types.
func (c *Catalog) Types() []entity.ApplicationType {
	types := make([]entity.ApplicationType, 0, len(c.definitions))
	for t := range c.definitions {
		types = append(types, t)
	}
	return types
}
