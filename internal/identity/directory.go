// Package identity resolves supply chain actors by id or role.
package identity

import (
	"sort"

	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// Directory is the read-only actor registry consulted by the batch registry.
type Directory interface {
	FindByID(id string) (domain.Actor, bool)
	FindFirstByRole(role domain.Role) (domain.Actor, bool)
	List() []domain.Actor
}

// Static is an immutable in-process Directory. Registration order decides
// which actor FindFirstByRole returns.
type Static struct {
	ordered []domain.Actor
	byID    map[string]domain.Actor
}

var _ Directory = (*Static)(nil)

// NewStatic builds a directory from the supplied actors. Later duplicates of
// an id are ignored.
func NewStatic(actors ...domain.Actor) *Static {
	s := &Static{byID: make(map[string]domain.Actor, len(actors))}
	for _, a := range actors {
		if a.ID == "" {
			continue
		}
		if _, exists := s.byID[a.ID]; exists {
			continue
		}
		s.byID[a.ID] = a
		s.ordered = append(s.ordered, a)
	}
	return s
}

// Default returns the seeded demo participants.
func Default() *Static {
	return NewStatic(
		domain.Actor{ID: "user_farmer_1", DisplayName: "Green Valley Farms", Role: domain.RoleFarmer, Email: "farmer@example.com"},
		domain.Actor{ID: "user_distributor_1", DisplayName: "Fresh-Link Logistics", Role: domain.RoleDistributor, Email: "distributor@example.com"},
		domain.Actor{ID: "user_retailer_1", DisplayName: "The Corner Market", Role: domain.RoleRetailer, Email: "retailer@example.com"},
		domain.Actor{ID: "user_consumer_1", DisplayName: "Jane Doe", Role: domain.RoleConsumer, Email: "consumer@example.com"},
	)
}

// FindByID implements Directory.
func (s *Static) FindByID(id string) (domain.Actor, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// FindFirstByRole implements Directory.
func (s *Static) FindFirstByRole(role domain.Role) (domain.Actor, bool) {
	for _, a := range s.ordered {
		if a.Role == role {
			return a, true
		}
	}
	return domain.Actor{}, false
}

// List returns the actors sorted by role then id.
func (s *Static) List() []domain.Actor {
	out := make([]domain.Actor, len(s.ordered))
	copy(out, s.ordered)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return roleRank(out[i].Role) < roleRank(out[j].Role)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func roleRank(r domain.Role) int {
	switch r {
	case domain.RoleFarmer:
		return 0
	case domain.RoleDistributor:
		return 1
	case domain.RoleRetailer:
		return 2
	case domain.RoleConsumer:
		return 3
	}
	return 4
}

// Resolve returns the actor for id when it exists and holds role.
func Resolve(dir Directory, id string, role domain.Role) (domain.Actor, bool) {
	a, ok := dir.FindByID(id)
	if !ok || a.Role != role {
		return domain.Actor{}, false
	}
	return a, true
}

// DisplayName returns the actor's name or fallback when id does not resolve.
func DisplayName(dir Directory, id, fallback string) string {
	if a, ok := dir.FindByID(id); ok && a.DisplayName != "" {
		return a.DisplayName
	}
	return fallback
}
