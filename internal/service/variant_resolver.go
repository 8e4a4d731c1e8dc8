package service

import (
	"shopfront/internal/domain"

	"github.com/google/uuid"
)

// Selections maps attribute ids to the attribute value the shopper picked.
type Selections map[uuid.UUID]uuid.UUID

// Clone returns an independent copy of the selection map.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for attributeID, valueID := range s {
		out[attributeID] = valueID
	}
	return out
}

// FindMatchingVariant maps a selection to a concrete variant. An empty
// selection never matches. A variant matches when every selected attribute
// agrees with its tag for that attribute and either the variant varies on a
// single attribute or the selection covers all of its dimensions. The first
// matching variant wins; a well-formed catalog has no overlapping tag sets.
// No match is a valid result, not an error.
func FindMatchingVariant(variants []*domain.Variant, selections Selections) *domain.Variant {
	if len(selections) == 0 {
		return nil
	}

	for _, variant := range variants {
		if variantMatches(variant, selections) {
			return variant
		}
	}

	return nil
}

func variantMatches(variant *domain.Variant, selections Selections) bool {
	for attributeID, selectedValue := range selections {
		value, ok := variant.ValueFor(attributeID)
		if !ok || value != selectedValue {
			return false
		}
	}

	return len(variant.Tags) == 1 || len(variant.Tags) == len(selections)
}

// AvailableValues computes which values of attributeID remain choosable given
// the current partial selection. A variant contributes its value when it is
// tagged for attributeID and every one of its other tags is either unselected
// or selected to the same value.
func AvailableValues(variants []*domain.Variant, attributeID uuid.UUID, selections Selections) map[uuid.UUID]struct{} {
	available := map[uuid.UUID]struct{}{}

	// Single-dimension short-circuit: when the selection already resolves to
	// a variant that varies only on this attribute, its one value is the
	// entire choosable set.
	if matched := FindMatchingVariant(variants, selections); matched != nil && len(matched.Tags) == 1 {
		if matched.Tags[0].AttributeID == attributeID {
			available[matched.Tags[0].AttributeValueID] = struct{}{}
			return available
		}
	}

	for _, variant := range variants {
		value, ok := variant.ValueFor(attributeID)
		if !ok {
			continue
		}
		if variantCompatible(variant, attributeID, selections) {
			available[value] = struct{}{}
		}
	}

	return available
}

func variantCompatible(variant *domain.Variant, attributeID uuid.UUID, selections Selections) bool {
	for _, tag := range variant.Tags {
		if tag.AttributeID == attributeID {
			continue
		}
		selected, ok := selections[tag.AttributeID]
		if ok && selected != tag.AttributeValueID {
			return false
		}
	}
	return true
}

// HasEnoughSelections reports whether the selection fully determines the
// matched variant, gating price/stock/add-to-cart display. Single-attribute
// variants need any non-empty selection; multi-attribute variants need one
// selection per dimension.
func HasEnoughSelections(variant *domain.Variant, selections Selections) bool {
	if variant == nil {
		return false
	}
	if len(variant.Tags) == 1 {
		return len(selections) >= 1
	}
	return len(variant.Tags) == len(selections)
}

// ApplySelection sets one attribute to a value and clears any other selected
// attribute whose value is no longer in its recomputed available set. This is
// the pruning rule behind dynamic option buttons: picking a color may
// invalidate a previously picked size.
func ApplySelection(variants []*domain.Variant, selections Selections, attributeID, valueID uuid.UUID) Selections {
	next := selections.Clone()
	next[attributeID] = valueID

	for otherAttribute, selectedValue := range next {
		if otherAttribute == attributeID {
			continue
		}
		available := AvailableValues(variants, otherAttribute, next)
		if _, ok := available[selectedValue]; !ok {
			delete(next, otherAttribute)
		}
	}

	return next
}
