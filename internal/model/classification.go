package model

import (
	"github.com/google/uuid"
)

// RoutineCategory is one of the fixed categories of everyday spending.
type RoutineCategory string

const (
	CategorySupermarket    RoutineCategory = "supermarket"
	CategoryFood           RoutineCategory = "food"
	CategoryServices       RoutineCategory = "services"
	CategoryLeisure        RoutineCategory = "leisure"
	CategoryPersonalCare   RoutineCategory = "personal_care"
	CategoryShopping       RoutineCategory = "shopping"
	CategoryTransportation RoutineCategory = "transportation"
	CategoryHealth         RoutineCategory = "health"
	CategoryFamily         RoutineCategory = "family"
	CategoryCharity        RoutineCategory = "charity"
	CategoryFixed          RoutineCategory = "fixed"
	CategoryOther          RoutineCategory = "other"
)

// OccasionalKey is the breakdown key under which occasional expenses are grouped.
const OccasionalKey = "occasional"

// RoutineCategories lists every routine category in display order.
var RoutineCategories = []RoutineCategory{
	CategorySupermarket,
	CategoryFood,
	CategoryServices,
	CategoryLeisure,
	CategoryPersonalCare,
	CategoryShopping,
	CategoryTransportation,
	CategoryHealth,
	CategoryFamily,
	CategoryCharity,
	CategoryFixed,
	CategoryOther,
}

// CategoryKind names a category registry. Values double as URL segments.
type CategoryKind string

const (
	KindSupermarkets      CategoryKind = "supermarkets"
	KindRestaurants       CategoryKind = "restaurants"
	KindServiceTypes      CategoryKind = "service-types"
	KindLeisureTypes      CategoryKind = "leisure-types"
	KindPersonalCareTypes CategoryKind = "personal-care-types"
	KindShops             CategoryKind = "shops"
	KindPlaces            CategoryKind = "places"
	KindHealthTypes       CategoryKind = "health-types"
	KindFamilyMembers     CategoryKind = "family-members"
	KindCharityTypes      CategoryKind = "charity-types"
	KindFixedExpenseTypes CategoryKind = "fixed-expense-types"
)

// CategoryKinds lists every registry.
var CategoryKinds = []CategoryKind{
	KindSupermarkets,
	KindRestaurants,
	KindServiceTypes,
	KindLeisureTypes,
	KindPersonalCareTypes,
	KindShops,
	KindPlaces,
	KindHealthTypes,
	KindFamilyMembers,
	KindCharityTypes,
	KindFixedExpenseTypes,
}

// registryFor is the variant table: the registry a routine category's
// reference points into. Categories absent from the table carry no reference.
var registryFor = map[RoutineCategory]CategoryKind{
	CategorySupermarket:    KindSupermarkets,
	CategoryFood:           KindRestaurants,
	CategoryServices:       KindServiceTypes,
	CategoryLeisure:        KindLeisureTypes,
	CategoryPersonalCare:   KindPersonalCareTypes,
	CategoryShopping:       KindShops,
	CategoryTransportation: KindPlaces,
	CategoryHealth:         KindHealthTypes,
	CategoryFamily:         KindFamilyMembers,
	CategoryCharity:        KindCharityTypes,
	CategoryFixed:          KindFixedExpenseTypes,
}

// IsValid reports whether c is a known routine category.
func (c RoutineCategory) IsValid() bool {
	for _, rc := range RoutineCategories {
		if rc == c {
			return true
		}
	}
	return false
}

// Registry returns the registry a reference of this category must point into.
func (c RoutineCategory) Registry() (CategoryKind, bool) {
	k, ok := registryFor[c]
	return k, ok
}

// IsValid reports whether k is a known registry.
func (k CategoryKind) IsValid() bool {
	for _, ck := range CategoryKinds {
		if ck == k {
			return true
		}
	}
	return false
}

// Category returns the routine category whose references point into k.
func (k CategoryKind) Category() RoutineCategory {
	for c, ck := range registryFor {
		if ck == k {
			return c
		}
	}
	return ""
}

// IsCategoryKey reports whether key is a valid breakdown/goal key.
func IsCategoryKey(key string) bool {
	return key == OccasionalKey || RoutineCategory(key).IsValid()
}

// Classification is the category variant shared by expenses and recurring
// definitions. Exactly one shape is valid per expense type:
//
//	routine:    RoutineCategory set, CategoryRefID set iff the category has a registry
//	occasional: OccasionalGroupID set, nothing else
//
// Build values with Routine or Occasional and check them with Validate.
type Classification struct {
	ExpenseType       ExpenseType      `db:"expense_type" json:"expenseType"`
	RoutineCategory   *RoutineCategory `db:"routine_category" json:"routineCategory,omitempty"`
	CategoryRefID     *uuid.UUID       `db:"category_ref_id" json:"categoryRefId,omitempty"`
	OccasionalGroupID *uuid.UUID       `db:"occasional_group_id" json:"occasionalGroupId,omitempty"`
}

// Routine builds a routine classification.
func Routine(category RoutineCategory, ref *uuid.UUID) Classification {
	return Classification{ExpenseType: ExpenseTypeRoutine, RoutineCategory: &category, CategoryRefID: ref}
}

// Occasional builds an occasional classification.
func Occasional(groupID uuid.UUID) Classification {
	return Classification{ExpenseType: ExpenseTypeOccasional, OccasionalGroupID: &groupID}
}

// CategoryKey is the breakdown key: the routine category or "occasional".
func (c Classification) CategoryKey() string {
	if c.ExpenseType == ExpenseTypeOccasional {
		return OccasionalKey
	}
	if c.RoutineCategory == nil {
		return string(CategoryOther)
	}
	return string(*c.RoutineCategory)
}

// Reference returns the registry and id this classification points to, if any.
func (c Classification) Reference() (CategoryKind, uuid.UUID, bool) {
	if c.ExpenseType != ExpenseTypeRoutine || c.RoutineCategory == nil || c.CategoryRefID == nil {
		return "", uuid.Nil, false
	}
	kind, ok := c.RoutineCategory.Registry()
	if !ok {
		return "", uuid.Nil, false
	}
	return kind, *c.CategoryRefID, true
}

// ClassificationIssue describes why a classification shape is invalid.
type ClassificationIssue struct {
	Field   string
	Message string
}

// Validate checks the shape of the variant. It does not check that
// references exist; that needs storage.
func (c Classification) Validate() []ClassificationIssue {
	var issues []ClassificationIssue
	add := func(field, msg string) {
		issues = append(issues, ClassificationIssue{Field: field, Message: msg})
	}

	switch c.ExpenseType {
	case ExpenseTypeRoutine:
		if c.OccasionalGroupID != nil {
			add("occasionalGroupId", "must be empty for routine expenses")
		}
		if c.RoutineCategory == nil {
			add("routineCategory", "is required for routine expenses")
			return issues
		}
		if !c.RoutineCategory.IsValid() {
			add("routineCategory", "is not a known category")
			return issues
		}
		kind, hasRegistry := c.RoutineCategory.Registry()
		switch {
		case hasRegistry && c.CategoryRefID == nil:
			add("categoryRefId", "is required for category "+string(*c.RoutineCategory)+" ("+string(kind)+")")
		case !hasRegistry && c.CategoryRefID != nil:
			add("categoryRefId", "must be empty for category "+string(*c.RoutineCategory))
		}
	case ExpenseTypeOccasional:
		if c.OccasionalGroupID == nil {
			add("occasionalGroupId", "is required for occasional expenses")
		}
		if c.RoutineCategory != nil {
			add("routineCategory", "must be empty for occasional expenses")
		}
		if c.CategoryRefID != nil {
			add("categoryRefId", "must be empty for occasional expenses")
		}
	default:
		add("expenseType", "must be 'routine' or 'occasional'")
	}
	return issues
}
