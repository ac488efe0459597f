package models

import (
	"sort"
	"strconv"

	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

// DefaultStages returns the six-stage layout new pipelines start with
func DefaultStages() []Stage {
	return []Stage{
		{ID: 1, Name: "Prospects", Color: "#EFF6FF", Order: 0, Entities: []EntityRef{}},
		{ID: 2, Name: "Contacted", Color: "#F5F3FF", Order: 1, Entities: []EntityRef{}},
		{ID: 3, Name: "Qualified", Color: "#ECFDF5", Order: 2, Entities: []EntityRef{}},
		{ID: 4, Name: "Proposal", Color: "#FFF7ED", Order: 3, Entities: []EntityRef{}},
		{ID: 5, Name: "Negotiation", Color: "#FEFCE8", Order: 4, Entities: []EntityRef{}},
		{ID: 6, Name: "Won", Color: "#ECFDF5", Order: 5, Entities: []EntityRef{}},
	}
}

// NormalizeStages upgrades a stage array to canonical shape: every stage
// gets a non-nil entity list. The input is not modified.
func NormalizeStages(stages []Stage) []Stage {
	out := make([]Stage, len(stages))
	for i, s := range stages {
		out[i] = s
		out[i].Entities = make([]EntityRef, len(s.Entities))
		copy(out[i].Entities, s.Entities)
	}
	return out
}

// Normalize applies NormalizeStages in place and lifts StageSeq to cover
// every stage id present
func (p *Pipeline) Normalize() {
	p.Stages = NormalizeStages(p.Stages)
	for _, s := range p.Stages {
		if s.ID > p.StageSeq {
			p.StageSeq = s.ID
		}
	}
}

// renumber rewrites order to match array position
func (p *Pipeline) renumber() {
	for i := range p.Stages {
		p.Stages[i].Order = i
	}
}

func (p *Pipeline) sortByOrder() {
	sort.SliceStable(p.Stages, func(i, j int) bool {
		return p.Stages[i].Order < p.Stages[j].Order
	})
}

// allocateStageID returns the next never-used stage id
func (p *Pipeline) allocateStageID() int {
	for _, s := range p.Stages {
		if s.ID > p.StageSeq {
			p.StageSeq = s.ID
		}
	}
	p.StageSeq++
	return p.StageSeq
}

// StageIndex returns the array position of stageID or -1
func (p *Pipeline) StageIndex(stageID int) int {
	for i := range p.Stages {
		if p.Stages[i].ID == stageID {
			return i
		}
	}
	return -1
}

// Stage returns the stage with the given id or nil
func (p *Pipeline) Stage(stageID int) *Stage {
	if i := p.StageIndex(stageID); i >= 0 {
		return &p.Stages[i]
	}
	return nil
}

// Locate returns the first stage holding the entity or nil
func (p *Pipeline) Locate(entityType EntityType, entityID string) *Stage {
	for i := range p.Stages {
		for _, ref := range p.Stages[i].Entities {
			if ref.Matches(entityType, entityID) {
				return &p.Stages[i]
			}
		}
	}
	return nil
}

// RefCount returns the number of entity refs across all stages
func (p *Pipeline) RefCount() int {
	n := 0
	for _, s := range p.Stages {
		n += len(s.Entities)
	}
	return n
}

// InitStages sets the stage list of a new pipeline. An empty input yields
// the default stages. Orders are made contiguous in the caller's order and
// every stage gets a fresh id.
func (p *Pipeline) InitStages(inputs []StageInput) {
	if len(inputs) == 0 {
		p.Stages = DefaultStages()
		p.StageSeq = len(p.Stages)
		return
	}

	sorted := append([]StageInput(nil), inputs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	p.Stages = make([]Stage, 0, len(sorted))
	p.StageSeq = 0
	for _, in := range sorted {
		p.Stages = append(p.Stages, Stage{
			ID:       p.allocateStageID(),
			Name:     in.Name,
			Color:    in.Color,
			Entities: []EntityRef{},
		})
	}
	p.renumber()
}

// ReplaceStages reconciles the stage list against caller input.
//
// An input whose id names an existing stage keeps that stage's entities and
// takes the new name, color and order. Any other input becomes a new stage
// with a never-used id. Existing stages missing from the input are folded
// into their nearest surviving neighbour the same way RemoveStage does, so
// no placement is lost. The result is sorted by order and renumbered.
// A nil input only renames; an explicit empty list is refused.
func (p *Pipeline) ReplaceStages(name string, inputs []StageInput) error {
	if inputs == nil {
		if name != "" {
			p.Name = name
		}
		return nil
	}
	if len(inputs) == 0 {
		return errors.NewInvalidStateError("Pipeline must have at least one stage")
	}
	p.Normalize()

	old := p.Stages
	used := make(map[int]bool, len(inputs))
	next := make([]Stage, 0, len(inputs))
	for _, in := range inputs {
		if in.ID != nil && !used[*in.ID] {
			if i := p.StageIndex(*in.ID); i >= 0 {
				used[*in.ID] = true
				next = append(next, Stage{
					ID:       old[i].ID,
					Name:     in.Name,
					Color:    in.Color,
					Order:    in.Order,
					Entities: old[i].Entities,
				})
				continue
			}
		}
		next = append(next, Stage{
			ID:       p.allocateStageID(),
			Name:     in.Name,
			Color:    in.Color,
			Order:    in.Order,
			Entities: []EntityRef{},
		})
	}

	// Fold dropped stages, walking the old array so that the predecessor
	// rule sees the original neighbourhood.
	for i, s := range old {
		if used[s.ID] || len(s.Entities) == 0 {
			continue
		}
		target := -1
		for j := i - 1; j >= 0 && target < 0; j-- {
			if used[old[j].ID] {
				target = old[j].ID
			}
		}
		for j := i + 1; j < len(old) && target < 0; j++ {
			if used[old[j].ID] {
				target = old[j].ID
			}
		}
		if target < 0 {
			// No original stage survives; the first new stage absorbs it.
			target = next[0].ID
		}
		for k := range next {
			if next[k].ID == target {
				next[k].Entities = append(next[k].Entities, s.Entities...)
				break
			}
		}
	}

	if name != "" {
		p.Name = name
	}
	p.Stages = next
	p.sortByOrder()
	p.renumber()
	return nil
}

// RemoveStage deletes a stage, moving its entities onto the fallback stage
// (predecessor by position, else successor), then renumbers orders.
func (p *Pipeline) RemoveStage(stageID int) error {
	p.Normalize()

	idx := p.StageIndex(stageID)
	if idx < 0 {
		return errors.NewNotFoundError("Stage", strconv.Itoa(stageID))
	}
	if len(p.Stages) <= 1 {
		return errors.NewInvalidStateError("Pipeline must have at least one stage")
	}

	fallback := idx - 1
	if fallback < 0 {
		fallback = idx + 1
	}
	p.Stages[fallback].Entities = append(p.Stages[fallback].Entities, p.Stages[idx].Entities...)

	p.Stages = append(p.Stages[:idx], p.Stages[idx+1:]...)
	p.renumber()
	return nil
}

// ReorderStages applies caller supplied orders. The input must name every
// stage exactly once; stage contents come from the stored state, never from
// the caller. The result is renumbered to a contiguous sequence.
func (p *Pipeline) ReorderStages(inputs []StageInput) error {
	p.Normalize()

	if len(inputs) != len(p.Stages) {
		return errors.NewValidationError("stages", "reorder must list every stage exactly once")
	}

	orders := make(map[int]int, len(inputs))
	for _, in := range inputs {
		if in.ID == nil {
			return errors.NewValidationError("stages", "every stage needs an id")
		}
		if _, dup := orders[*in.ID]; dup {
			return errors.NewValidationError("stages", "duplicate stage id "+strconv.Itoa(*in.ID))
		}
		if p.StageIndex(*in.ID) < 0 {
			return errors.NewNotFoundError("Stage", strconv.Itoa(*in.ID))
		}
		orders[*in.ID] = in.Order
	}

	for i := range p.Stages {
		p.Stages[i].Order = orders[p.Stages[i].ID]
	}
	p.sortByOrder()
	p.renumber()
	return nil
}

// MoveEntity removes every ref to the entity and appends a fresh one to
// the target stage. Type checking against ManageType is the caller's job
// so that it can run before entity existence checks.
func (p *Pipeline) MoveEntity(entityType EntityType, entityID string, toStageID int) error {
	p.Normalize()

	target := p.StageIndex(toStageID)
	if target < 0 {
		return errors.NewNotFoundError("Destination stage", strconv.Itoa(toStageID))
	}

	p.DetachEntity(entityType, entityID)

	p.Stages[target].Entities = append(p.Stages[target].Entities, EntityRef{
		EntityID:   entityID,
		EntityType: entityType,
		Sort:       len(p.Stages[target].Entities),
	})
	return nil
}

// DetachEntity removes the entity from every stage and returns how many
// refs were dropped
func (p *Pipeline) DetachEntity(entityType EntityType, entityID string) int {
	return p.DetachWhere(func(ref EntityRef) bool {
		return ref.Matches(entityType, entityID)
	})
}

// DetachWhere removes every ref for which drop returns true
func (p *Pipeline) DetachWhere(drop func(EntityRef) bool) int {
	removed := 0
	for i := range p.Stages {
		kept := make([]EntityRef, 0, len(p.Stages[i].Entities))
		for _, ref := range p.Stages[i].Entities {
			if drop(ref) {
				removed++
				continue
			}
			kept = append(kept, ref)
		}
		p.Stages[i].Entities = kept
	}
	return removed
}
