package sandbox

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/goliatone/go-bankconnect/core"
	"github.com/google/uuid"
)

// EntityState is everything the sandbox knows about one entity.
type EntityState struct {
	EntityID  string                          `json:"entity_id"`
	LinkID    string                          `json:"link_id"`
	CreatedAt time.Time                       `json:"created_at"`
	Identity  core.Record                     `json:"identity"`
	Resources map[core.Resource][]core.Record `json:"resources"`
}

// Store holds sandbox entities in memory. It is safe for concurrent use.
type Store struct {
	mu                    sync.RWMutex
	byID                  map[string]*EntityState
	byLink                map[string]string
	order                 []string
	now                   func() time.Time
	transactionsPerEntity int
}

func NewStore() *Store {
	return &Store{
		byID:                  map[string]*EntityState{},
		byLink:                map[string]string{},
		now:                   time.Now,
		transactionsPerEntity: defaultTransactionsPerEntity,
	}
}

// CreateEntity returns the entity for linkID, minting it with seeded
// fixtures on first use. The second return reports whether it was new.
func (s *Store) CreateEntity(linkID string) (EntityState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byLink[linkID]; ok {
		return cloneEntity(s.byID[id]), false
	}

	rng := rand.New(rand.NewSource(seedFor(linkID)))
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		id = uuid.New()
	}
	state := &EntityState{
		EntityID:  id.String(),
		LinkID:    linkID,
		CreatedAt: s.now().UTC(),
	}
	seedFixtures(state, rng, s.transactionsPerEntity)
	s.byID[state.EntityID] = state
	s.byLink[linkID] = state.EntityID
	s.order = append(s.order, state.EntityID)
	return cloneEntity(state), true
}

func (s *Store) Entity(entityID string) (EntityState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.byID[entityID]
	if !ok {
		return EntityState{}, false
	}
	return cloneEntity(state), true
}

// Records returns the records of a paginated resource in service order.
func (s *Store) Records(entityID string, resource core.Resource) ([]core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.byID[entityID]
	if !ok {
		return nil, false
	}
	return append([]core.Record(nil), state.Resources[resource]...), true
}

// SetResource replaces the records of one resource. Identity takes the first
// record. Unknown entities are created with an empty link id.
func (s *Store) SetResource(entityID string, resource core.Resource, records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.byID[entityID]
	if !ok {
		state = &EntityState{
			EntityID:  entityID,
			CreatedAt: s.now().UTC(),
			Resources: map[core.Resource][]core.Record{},
		}
		s.byID[entityID] = state
		s.order = append(s.order, entityID)
	}
	if resource == core.ResourceIdentity {
		state.Identity = nil
		if len(records) > 0 {
			state.Identity = records[0]
		}
		return
	}
	state.Resources[resource] = append([]core.Record(nil), records...)
}

func (s *Store) EntityIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = map[string]*EntityState{}
	s.byLink = map[string]string{}
	s.order = nil
}

func cloneEntity(state *EntityState) EntityState {
	if state == nil {
		return EntityState{}
	}
	out := *state
	out.Resources = make(map[core.Resource][]core.Record, len(state.Resources))
	for resource, records := range state.Resources {
		out.Resources[resource] = append([]core.Record(nil), records...)
	}
	return out
}

func seedFor(linkID string) int64 {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(linkID))
	return int64(hash.Sum64() & 0x7fffffffffffffff)
}
