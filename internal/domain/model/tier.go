package model

// Tier is the ordinal access level. Higher tiers see everything the lower
// tiers see; tier 3 additionally carries a standing work-delete grant.
type Tier int

const (
	TierApprentice Tier = 1
	TierCompanion  Tier = 2
	TierMaster     Tier = 3
)

var tierNames = map[Tier]string{
	TierApprentice: "apprentice",
	TierCompanion:  "companion",
	TierMaster:     "master",
}

func (t Tier) Valid() bool {
	return t >= TierApprentice && t <= TierMaster
}

func (t Tier) Name() string {
	return tierNames[t]
}

// Tiers lists all valid tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierApprentice, TierCompanion, TierMaster}
}
