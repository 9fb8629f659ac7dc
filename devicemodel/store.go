package devicemodel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"evstation/internal"
	"evstation/utility"
)

const featureName = "DeviceModel"

// Storage persists variable values between restarts.
type Storage interface {
	Load() (map[VariableRef]string, error)
	Save(ref VariableRef, value string) error
}

type Store struct {
	mutex   sync.RWMutex
	values  map[VariableRef]string
	storage Storage
	logger  internal.LogHandler
}

func NewStore(storage Storage, logger internal.LogHandler) *Store {
	if logger == nil {
		logger = internal.NopLogger{}
	}
	return &Store{
		values:  make(map[VariableRef]string),
		storage: storage,
		logger:  logger,
	}
}

// Load seeds the store with defaults and overlays the persisted values.
func (s *Store) Load(defaults map[VariableRef]string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for ref, value := range defaults {
		s.values[ref] = value
	}
	if s.storage == nil {
		return nil
	}
	stored, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("loading device model: %w", err)
	}
	for ref, value := range stored {
		s.values[ref] = value
	}
	s.logger.FeatureEvent(featureName, "", fmt.Sprintf("loaded %d variables, %d persisted", len(s.values), len(stored)))
	return nil
}

func (s *Store) Get(ref VariableRef) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	value, ok := s.values[ref]
	return value, ok
}

// Set only accepts variables the store already knows.
func (s *Store) Set(ref VariableRef, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.values[ref]; !ok {
		return utility.Err(fmt.Sprintf("unknown variable %s", ref))
	}
	if s.storage != nil {
		if err := s.storage.Save(ref, value); err != nil {
			return fmt.Errorf("saving %s: %w", ref, err)
		}
	}
	s.values[ref] = value
	s.logger.FeatureEvent(featureName, "", fmt.Sprintf("%s set to %s", ref, value))
	return nil
}

func (s *Store) GetInt(ref VariableRef, fallback int) int {
	value, ok := s.Get(ref)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return i
}

func (s *Store) GetFloat(ref VariableRef, fallback float64) float64 {
	value, ok := s.Get(ref)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s *Store) GetBool(ref VariableRef, fallback bool) bool {
	value, ok := s.Get(ref)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

func (s *Store) GetList(ref VariableRef) []string {
	value, _ := s.Get(ref)
	return utility.SplitList(value)
}

func (s *Store) Refs() []VariableRef {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	refs := make([]VariableRef, 0, len(s.values))
	for ref := range s.values {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}
