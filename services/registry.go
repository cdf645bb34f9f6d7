package services

import (
	"fmt"
	"log"
	"sort"
)

// Registry is the process-wide catalog of integration modules. It is built
// once at startup from an explicit constructor list and read-only afterwards,
// so lookups need no locking.
type Registry struct {
	services map[string]*Service
}

func NewRegistry() *Registry {
	return &Registry{services: make(map[string]*Service)}
}

// Register validates and stores a module. It rejects duplicate ids, nil
// action/reaction slices and duplicate action/reaction ids within the module.
func (r *Registry) Register(svc *Service) error {
	if svc == nil || svc.ID == "" {
		return fmt.Errorf("service must have a valid id")
	}
	if _, ok := r.services[svc.ID]; ok {
		return fmt.Errorf("service with id '%s' is already registered", svc.ID)
	}
	if svc.Name == "" {
		return fmt.Errorf("service '%s' must have a valid name", svc.ID)
	}
	if svc.Actions == nil {
		return fmt.Errorf("service '%s' actions must not be nil", svc.ID)
	}
	if svc.Reactions == nil {
		return fmt.Errorf("service '%s' reactions must not be nil", svc.ID)
	}

	seen := make(map[string]bool, len(svc.Actions))
	for _, action := range svc.Actions {
		if seen[action.ID] {
			return fmt.Errorf("duplicate action id '%s' in service '%s'", action.ID, svc.ID)
		}
		seen[action.ID] = true
	}

	seen = make(map[string]bool, len(svc.Reactions))
	for _, reaction := range svc.Reactions {
		if seen[reaction.ID] {
			return fmt.Errorf("duplicate reaction id '%s' in service '%s'", reaction.ID, svc.ID)
		}
		seen[reaction.ID] = true
	}

	r.services[svc.ID] = svc
	log.Printf("Registered service: %s (%s)", svc.Name, svc.ID)
	return nil
}

// Unregister removes a module. Unknown ids only warn.
func (r *Registry) Unregister(id string) {
	if _, ok := r.services[id]; !ok {
		log.Printf("Warning: service with id '%s' is not registered", id)
		return
	}
	delete(r.services, id)
	log.Printf("Unregistered service: %s", id)
}

func (r *Registry) Get(id string) *Service {
	return r.services[id]
}

// All returns every registered module ordered by id for stable listings.
func (r *Registry) All() []*Service {
	all := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		all = append(all, svc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (r *Registry) AllActions() []ActionDefinition {
	var actions []ActionDefinition
	for _, svc := range r.All() {
		actions = append(actions, svc.Actions...)
	}
	return actions
}

func (r *Registry) AllReactions() []ReactionDefinition {
	var reactions []ReactionDefinition
	for _, svc := range r.All() {
		reactions = append(reactions, svc.Reactions...)
	}
	return reactions
}

// ActionByType resolves a fully qualified "service.action" type. It also
// returns the owning module. Ids are unique by the service prefix
// convention; the scan returns the first match.
func (r *Registry) ActionByType(actionType string) (*Service, *ActionDefinition) {
	for _, svc := range r.All() {
		for i := range svc.Actions {
			if svc.ActionType(svc.Actions[i].ID) == actionType {
				return svc, &svc.Actions[i]
			}
		}
	}
	return nil, nil
}

func (r *Registry) ReactionByType(reactionType string) (*Service, *ReactionDefinition) {
	for _, svc := range r.All() {
		for i := range svc.Reactions {
			if svc.ID+"."+svc.Reactions[i].ID == reactionType {
				return svc, &svc.Reactions[i]
			}
		}
	}
	return nil, nil
}
