package evse

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"evstation/internal"
	"evstation/metrics/counters"
	"evstation/types"
	"evstation/utility"
)

const featureName = "Evse"

type Evse struct {
	Id        int                    `json:"id"`
	PhaseType types.CurrentPhaseType `json:"phaseType"`
}

type Transaction struct {
	Id            string        `json:"transactionId"`
	EvseId        int           `json:"evseId"`
	StartTime     time.Time     `json:"startTime"`
	IdToken       types.IdToken `json:"idToken"`
	RemoteStartId *int          `json:"remoteStartId,omitempty"`
	seqNo         int
}

// SeqNo is the sequence number the next TransactionEvent of the transaction gets.
func (t Transaction) SeqNo() int {
	return t.seqNo
}

// Manager tracks the station's EVSEs and the transaction running on each.
type Manager struct {
	mutex        sync.RWMutex
	evses        map[int]*Evse
	transactions map[int]*Transaction
	listeners    []func(evseId int)
	logger       internal.LogHandler
}

func NewManager(evses []Evse, logger internal.LogHandler) *Manager {
	if logger == nil {
		logger = internal.NopLogger{}
	}
	m := &Manager{
		evses:        make(map[int]*Evse),
		transactions: make(map[int]*Transaction),
		logger:       logger,
	}
	for _, e := range evses {
		evse := e
		if evse.PhaseType == "" {
			evse.PhaseType = types.CurrentPhaseAC
		}
		m.evses[evse.Id] = &evse
	}
	return m
}

// OnChange registers a listener called after a transaction starts or stops.
func (m *Manager) OnChange(listener func(evseId int)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listeners = append(m.listeners, listener)
}

func (m *Manager) notify(evseId int) {
	m.mutex.RLock()
	listeners := append([]func(int){}, m.listeners...)
	count := len(m.transactions)
	m.mutex.RUnlock()
	counters.ObserveTransactions(count)
	for _, listener := range listeners {
		listener(evseId)
	}
}

func (m *Manager) EvseExists(evseId int) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.evses[evseId]
	return ok
}

func (m *Manager) EvseIds() []int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ids := make([]int, 0, len(m.evses))
	for id := range m.evses {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CurrentPhaseType of evse 0 is the common type of all EVSEs, Unknown when mixed.
func (m *Manager) CurrentPhaseType(evseId int) types.CurrentPhaseType {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if evseId != 0 {
		if evse, ok := m.evses[evseId]; ok {
			return evse.PhaseType
		}
		return types.CurrentPhaseUnknown
	}
	phaseType := types.CurrentPhaseUnknown
	for _, evse := range m.evses {
		if phaseType == types.CurrentPhaseUnknown {
			phaseType = evse.PhaseType
		} else if phaseType != evse.PhaseType {
			return types.CurrentPhaseUnknown
		}
	}
	return phaseType
}

func (m *Manager) HasActiveTransaction(evseId int) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.transactions[evseId]
	return ok
}

func (m *Manager) TransactionId(evseId int) (string, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if tx, ok := m.transactions[evseId]; ok {
		return tx.Id, true
	}
	return "", false
}

func (m *Manager) TransactionStartTime(evseId int) (time.Time, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if tx, ok := m.transactions[evseId]; ok {
		return tx.StartTime, true
	}
	return time.Time{}, false
}

func (m *Manager) FindTransaction(transactionId string) (Transaction, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, tx := range m.transactions {
		if tx.Id == transactionId {
			return *tx, true
		}
	}
	return Transaction{}, false
}

func (m *Manager) Transactions() []Transaction {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	list := make([]Transaction, 0, len(m.transactions))
	for _, tx := range m.transactions {
		list = append(list, *tx)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].EvseId < list[j].EvseId
	})
	return list
}

// StartTransaction opens a transaction with a fresh id on an idle evse.
func (m *Manager) StartTransaction(evseId int, idToken types.IdToken, remoteStartId *int, start time.Time) (Transaction, error) {
	m.mutex.Lock()
	if _, ok := m.evses[evseId]; !ok {
		m.mutex.Unlock()
		return Transaction{}, utility.Err(fmt.Sprintf("evse %d does not exist", evseId))
	}
	if tx, ok := m.transactions[evseId]; ok {
		m.mutex.Unlock()
		return Transaction{}, utility.Err(fmt.Sprintf("evse %d is busy with transaction %s", evseId, tx.Id))
	}
	tx := &Transaction{
		Id:            utility.NewUUID(),
		EvseId:        evseId,
		StartTime:     start,
		IdToken:       idToken,
		RemoteStartId: remoteStartId,
	}
	m.transactions[evseId] = tx
	started := *tx
	m.mutex.Unlock()

	m.logger.FeatureEvent(featureName, started.Id, fmt.Sprintf("transaction started on evse %d", evseId))
	m.notify(evseId)
	return started, nil
}

func (m *Manager) StopTransaction(transactionId string) (Transaction, error) {
	m.mutex.Lock()
	var stopped *Transaction
	for evseId, tx := range m.transactions {
		if tx.Id == transactionId {
			stopped = tx
			delete(m.transactions, evseId)
			break
		}
	}
	m.mutex.Unlock()
	if stopped == nil {
		return Transaction{}, utility.Err(fmt.Sprintf("transaction %s not found", transactionId))
	}

	m.logger.FeatureEvent(featureName, stopped.Id, fmt.Sprintf("transaction stopped on evse %d", stopped.EvseId))
	m.notify(stopped.EvseId)
	return *stopped, nil
}

// NextSeqNo numbers the TransactionEvent messages of one transaction.
func (m *Manager) NextSeqNo(transactionId string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, tx := range m.transactions {
		if tx.Id == transactionId {
			seqNo := tx.seqNo
			tx.seqNo++
			return seqNo
		}
	}
	return 0
}
