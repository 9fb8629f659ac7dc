package power

import (
	"sort"
	"sync"

	"evstation/types"
)

// Repository persists charging profiles. Records are returned in insertion
// order (ascending Seq).
type Repository interface {
	GetAll() ([]*types.ProfileRecord, error)
	GetForEvse(evseId int) ([]*types.ProfileRecord, error)
	GetMatching(criteria *types.ProfileCriteria) ([]*types.ProfileRecord, error)
	InsertOrReplace(record *types.ProfileRecord) error
	DeleteById(profileId int) (bool, error)
	DeleteByCriteria(criteria *types.ProfileCriteria) (int, error)
}

type MemoryRepository struct {
	mutex   sync.Mutex
	records map[int]*types.ProfileRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[int]*types.ProfileRecord)}
}

func (r *MemoryRepository) GetAll() ([]*types.ProfileRecord, error) {
	return r.GetMatching(nil)
}

func (r *MemoryRepository) GetForEvse(evseId int) ([]*types.ProfileRecord, error) {
	return r.GetMatching(&types.ProfileCriteria{EvseId: &evseId})
}

func (r *MemoryRepository) GetMatching(criteria *types.ProfileCriteria) ([]*types.ProfileRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var list []*types.ProfileRecord
	for _, record := range r.records {
		if criteria.Matches(record) {
			list = append(list, record.Copy())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Seq < list[j].Seq
	})
	return list, nil
}

func (r *MemoryRepository) InsertOrReplace(record *types.ProfileRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.records[record.Profile.Id] = record.Copy()
	return nil
}

func (r *MemoryRepository) DeleteById(profileId int) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, ok := r.records[profileId]
	delete(r.records, profileId)
	return ok, nil
}

func (r *MemoryRepository) DeleteByCriteria(criteria *types.ProfileCriteria) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	count := 0
	for id, record := range r.records {
		if criteria.Matches(record) {
			delete(r.records, id)
			count++
		}
	}
	return count, nil
}
