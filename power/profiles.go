package power

import (
	"fmt"
	"sync"

	"evstation/internal"
	"evstation/metrics/counters"
	"evstation/types"
)

const featureName = "SmartCharging"

type ProfileResponse struct {
	Status     types.ChargingProfileStatus `json:"status"`
	StatusInfo *types.StatusInfo           `json:"statusInfo,omitempty"`
}

// ClearCriteria selects profiles to clear. A profile id wins over the other fields.
type ClearCriteria struct {
	ProfileId  *int
	EvseId     *int
	Purpose    types.ChargingProfilePurposeType
	StackLevel *int
}

// ProfileManager is the single owner of installed charging profiles. All
// mutations go through one lock.
type ProfileManager struct {
	mutex     sync.Mutex
	repo      Repository
	validator *Validator
	device    DeviceModel
	logger    internal.LogHandler
	seq       int64
	listeners []func(evseId int)
}

func NewProfileManager(repo Repository, device DeviceModel, evses EvseState, logger internal.LogHandler) (*ProfileManager, error) {
	if logger == nil {
		logger = internal.NopLogger{}
	}
	pm := &ProfileManager{
		repo:      repo,
		validator: NewValidator(device, evses),
		device:    device,
		logger:    logger,
	}
	records, err := repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("loading charging profiles: %w", err)
	}
	for _, record := range records {
		if record.Seq > pm.seq {
			pm.seq = record.Seq
		}
	}
	if len(records) > 0 {
		logger.FeatureEvent(featureName, "", fmt.Sprintf("loaded %d charging profiles", len(records)))
	}
	return pm, nil
}

func (pm *ProfileManager) OnChange(listener func(evseId int)) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.listeners = append(pm.listeners, listener)
}

func (pm *ProfileManager) notify(evseIds ...int) {
	pm.mutex.Lock()
	listeners := append([]func(int){}, pm.listeners...)
	pm.mutex.Unlock()
	for _, evseId := range evseIds {
		for _, listener := range listeners {
			listener(evseId)
		}
	}
}

// stored returns every record; a failing repository is logged and treated as empty.
func (pm *ProfileManager) stored() []*types.ProfileRecord {
	records, err := pm.repo.GetAll()
	if err != nil {
		pm.logger.Error("reading charging profiles", err)
		return nil
	}
	return records
}

func (pm *ProfileManager) Validate(profile *types.ChargingProfile, evseId int, source types.ProfileSource) ValidationResult {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.validator.Validate(profile, evseId, source, pm.stored())
}

// AddProfile validates the profile and installs it, replacing any profile
// with the same id on whatever evse it was attached to.
func (pm *ProfileManager) AddProfile(profile *types.ChargingProfile, evseId int, limitSource types.ChargingLimitSourceType, source types.ProfileSource) ProfileResponse {
	pm.mutex.Lock()
	stored := pm.stored()
	result := pm.validator.Validate(profile, evseId, source, stored)
	counters.ObserveValidation(result.String())
	if result != Valid {
		pm.mutex.Unlock()
		pm.logger.FeatureEvent(featureName, "", fmt.Sprintf("profile %d on evse %d rejected: %s", profileId(profile), evseId, result))
		return ProfileResponse{
			Status:     types.ChargingProfileStatusRejected,
			StatusInfo: types.NewStatusInfo(result.ReasonCode(), result.String()),
		}
	}

	previous := -1
	for _, record := range stored {
		if record.Profile.Id == profile.Id {
			previous = record.EvseId
		}
	}
	if limitSource == "" {
		limitSource = types.ChargingLimitSourceCSO
	}
	if source == "" {
		source = types.ProfileSourceSetChargingProfile
	}
	pm.seq++
	record := &types.ProfileRecord{
		EvseId:      evseId,
		LimitSource: limitSource,
		Source:      source,
		Seq:         pm.seq,
		Profile:     *pm.normalize(profile, evseId),
	}
	err := pm.repo.InsertOrReplace(record)
	pm.mutex.Unlock()
	if err != nil {
		pm.logger.Error(fmt.Sprintf("storing profile %d", profile.Id), err)
		return ProfileResponse{
			Status:     types.ChargingProfileStatusRejected,
			StatusInfo: types.NewStatusInfo("InternalError", err.Error()),
		}
	}

	pm.logger.FeatureEvent(featureName, "", fmt.Sprintf("profile %d %s stack %d installed on evse %d", profile.Id, profile.ChargingProfilePurpose, profile.StackLevel, evseId))
	if previous >= 0 && previous != evseId {
		pm.notify(previous, evseId)
	} else {
		pm.notify(evseId)
	}
	return ProfileResponse{Status: types.ChargingProfileStatusAccepted}
}

// normalize stores a missing number of phases on AC as three.
func (pm *ProfileManager) normalize(profile *types.ChargingProfile, evseId int) *types.ChargingProfile {
	normalized := profile.Copy()
	if pm.validator.phaseType(evseId, readSettings(pm.device)) != types.CurrentPhaseAC {
		return normalized
	}
	for i := range normalized.ChargingSchedule {
		periods := normalized.ChargingSchedule[i].ChargingSchedulePeriod
		for j := range periods {
			if periods[j].NumberPhases == nil {
				periods[j].NumberPhases = types.IntPtr(3)
			}
		}
	}
	return normalized
}

func (pm *ProfileManager) GetReportedProfiles(criteria *types.ProfileCriteria) []*types.ProfileRecord {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	records, err := pm.repo.GetMatching(criteria)
	if err != nil {
		pm.logger.Error("reading charging profiles", err)
		return nil
	}
	return records
}

// GetValidProfiles returns the profiles that apply to the evse, station wide
// ones included, that still pass validation.
func (pm *ProfileManager) GetValidProfiles(evseId int) []*types.ProfileRecord {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	stored := pm.stored()
	var valid []*types.ProfileRecord
	for _, record := range stored {
		if record.EvseId != evseId && record.EvseId != 0 {
			continue
		}
		if result := pm.validator.Validate(&record.Profile, record.EvseId, record.Source, stored); result != Valid {
			pm.logger.Debug(fmt.Sprintf("profile %d on evse %d no longer valid: %s", record.Profile.Id, record.EvseId, result))
			continue
		}
		valid = append(valid, record)
	}
	return valid
}

func (pm *ProfileManager) DeleteTransactionTxProfiles(transactionId string) int {
	if transactionId == "" {
		return 0
	}
	pm.mutex.Lock()
	var evseIds []int
	for _, record := range pm.stored() {
		if record.Profile.ChargingProfilePurpose != types.ChargingProfilePurposeTxProfile || record.Profile.TransactionId != transactionId {
			continue
		}
		deleted, err := pm.repo.DeleteById(record.Profile.Id)
		if err != nil {
			pm.logger.Error(fmt.Sprintf("deleting profile %d", record.Profile.Id), err)
			continue
		}
		if deleted {
			evseIds = append(evseIds, record.EvseId)
		}
	}
	pm.mutex.Unlock()

	if len(evseIds) > 0 {
		pm.logger.FeatureEvent(featureName, transactionId, fmt.Sprintf("deleted %d transaction profiles", len(evseIds)))
		pm.notify(evseIds...)
	}
	return len(evseIds)
}

// ClearProfiles never touches external constraints, those are not the CSMS's to clear.
func (pm *ProfileManager) ClearProfiles(criteria ClearCriteria) types.ClearChargingProfileStatus {
	pm.mutex.Lock()
	var evseIds []int
	for _, record := range pm.stored() {
		if record.Profile.ChargingProfilePurpose == types.ChargingProfilePurposeChargingStationExternalConstraints {
			continue
		}
		if !criteria.matches(record) {
			continue
		}
		deleted, err := pm.repo.DeleteById(record.Profile.Id)
		if err != nil {
			pm.logger.Error(fmt.Sprintf("deleting profile %d", record.Profile.Id), err)
			continue
		}
		if deleted {
			evseIds = append(evseIds, record.EvseId)
		}
	}
	pm.mutex.Unlock()

	if len(evseIds) == 0 {
		return types.ClearChargingProfileStatusUnknown
	}
	pm.logger.FeatureEvent(featureName, "", fmt.Sprintf("cleared %d charging profiles", len(evseIds)))
	pm.notify(evseIds...)
	return types.ClearChargingProfileStatusAccepted
}

func (c ClearCriteria) matches(record *types.ProfileRecord) bool {
	if c.ProfileId != nil {
		return record.Profile.Id == *c.ProfileId
	}
	if c.EvseId != nil && record.EvseId != *c.EvseId {
		return false
	}
	if c.Purpose != "" && record.Profile.ChargingProfilePurpose != c.Purpose {
		return false
	}
	if c.StackLevel != nil && record.Profile.StackLevel != *c.StackLevel {
		return false
	}
	return true
}

func profileId(profile *types.ChargingProfile) int {
	if profile == nil {
		return 0
	}
	return profile.Id
}
