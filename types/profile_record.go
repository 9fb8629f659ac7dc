package types

import "evstation/utility"

// ProfileSource names the request a profile was installed by.
type ProfileSource string

const (
	ProfileSourceSetChargingProfile      ProfileSource = "SetChargingProfile"
	ProfileSourceRequestStartTransaction ProfileSource = "RequestStartTransaction"
	ProfileSourceInstallation            ProfileSource = "Installation"
)

func (s *ProfileSource) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, s, ProfileSourceSetChargingProfile, ProfileSourceRequestStartTransaction, ProfileSourceInstallation)
}

// ProfileRecord is a charging profile as it is stored, attached to one evse
// (0 is the whole station).
type ProfileRecord struct {
	EvseId      int                     `json:"evseId" bson:"evse_id"`
	LimitSource ChargingLimitSourceType `json:"chargingLimitSource" bson:"charging_limit_source"`
	Source      ProfileSource           `json:"source" bson:"source"`
	Seq         int64                   `json:"seq" bson:"seq"`
	Profile     ChargingProfile         `json:"chargingProfile" bson:"profile"`
}

func (r *ProfileRecord) Copy() *ProfileRecord {
	record := *r
	record.Profile = *r.Profile.Copy()
	return &record
}

// ProfileCriteria selects stored profiles; unset fields match everything.
type ProfileCriteria struct {
	EvseId       *int
	ProfileIds   []int
	Purpose      ChargingProfilePurposeType
	StackLevel   *int
	LimitSources []ChargingLimitSourceType
}

func (c *ProfileCriteria) Matches(record *ProfileRecord) bool {
	if c == nil {
		return true
	}
	if c.EvseId != nil && *c.EvseId != record.EvseId {
		return false
	}
	if len(c.ProfileIds) > 0 && !utility.ContainsInt(c.ProfileIds, record.Profile.Id) {
		return false
	}
	if c.Purpose != "" && c.Purpose != record.Profile.ChargingProfilePurpose {
		return false
	}
	if c.StackLevel != nil && *c.StackLevel != record.Profile.StackLevel {
		return false
	}
	if len(c.LimitSources) > 0 {
		found := false
		for _, source := range c.LimitSources {
			if source == record.LimitSource {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
