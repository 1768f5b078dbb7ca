package domain

import "strings"

type RelationshipCategory string

const (
	// Organizational
	CategoryEmployment RelationshipCategory = "employment"
	CategoryMembership RelationshipCategory = "membership"
	CategoryOwnership  RelationshipCategory = "ownership"
	CategoryManagement RelationshipCategory = "management"

	// Social
	CategoryFriendship          RelationshipCategory = "friendship"
	CategoryProfessionalContact RelationshipCategory = "professional_contact"
	CategoryMentorship          RelationshipCategory = "mentorship"

	// Structural
	CategoryPartOf     RelationshipCategory = "part_of"
	CategoryContains   RelationshipCategory = "contains"
	CategoryDependsOn  RelationshipCategory = "depends_on"
	CategoryImplements RelationshipCategory = "implements"

	// Temporal
	CategoryPrecedes RelationshipCategory = "precedes"
	CategoryTriggers RelationshipCategory = "triggers"

	// Knowledge
	CategoryReferences  RelationshipCategory = "references"
	CategoryDerivesFrom RelationshipCategory = "derives_from"
)

type CategoryGroup string

const (
	GroupOrganizational CategoryGroup = "organizational"
	GroupSocial         CategoryGroup = "social"
	GroupStructural     CategoryGroup = "structural"
	GroupTemporal       CategoryGroup = "temporal"
	GroupKnowledge      CategoryGroup = "knowledge"
	GroupCustom         CategoryGroup = "custom"
)

var categoryGroups = map[RelationshipCategory]CategoryGroup{
	CategoryEmployment:          GroupOrganizational,
	CategoryMembership:          GroupOrganizational,
	CategoryOwnership:           GroupOrganizational,
	CategoryManagement:          GroupOrganizational,
	CategoryFriendship:          GroupSocial,
	CategoryProfessionalContact: GroupSocial,
	CategoryMentorship:          GroupSocial,
	CategoryPartOf:              GroupStructural,
	CategoryContains:            GroupStructural,
	CategoryDependsOn:           GroupStructural,
	CategoryImplements:          GroupStructural,
	CategoryPrecedes:            GroupTemporal,
	CategoryTriggers:            GroupTemporal,
	CategoryReferences:          GroupKnowledge,
	CategoryDerivesFrom:         GroupKnowledge,
}

var categoryFormality = map[RelationshipCategory]Formality{
	CategoryEmployment:          FormalityContractual,
	CategoryOwnership:           FormalityLegal,
	CategoryMembership:          FormalityFormal,
	CategoryFriendship:          FormalityInformal,
	CategoryProfessionalContact: FormalitySemiFormal,
}

// SymmetricCategories have no meaningful direction between their endpoints.
var SymmetricCategories = map[RelationshipCategory]bool{
	CategoryFriendship:          true,
	CategoryProfessionalContact: true,
}

func CustomCategory(name string) RelationshipCategory {
	return RelationshipCategory(customPrefix + name)
}

func ValidCategory(c string) bool {
	if _, ok := categoryGroups[RelationshipCategory(c)]; ok {
		return true
	}
	return strings.HasPrefix(c, customPrefix) && len(c) > len(customPrefix)
}

func (c RelationshipCategory) IsCustom() bool {
	return strings.HasPrefix(string(c), customPrefix)
}

func (c RelationshipCategory) Group() CategoryGroup {
	if g, ok := categoryGroups[c]; ok {
		return g
	}
	return GroupCustom
}

func (c RelationshipCategory) DefaultFormality() Formality {
	if f, ok := categoryFormality[c]; ok {
		return f
	}
	return FormalityFormal
}

func (c RelationshipCategory) IsSymmetric() bool {
	return SymmetricCategories[c]
}

// AllowsReflexive reports whether an entity may relate to itself under this
// category. No category currently does.
func (c RelationshipCategory) AllowsReflexive() bool {
	return false
}

// DisplayName is the human-readable label, e.g. "professional contact".
func (c RelationshipCategory) DisplayName() string {
	if c.IsCustom() {
		return strings.TrimPrefix(string(c), customPrefix)
	}
	return strings.ReplaceAll(string(c), "_", " ")
}
