package game

// ItemKind identifies one of the item types the god can demand.
type ItemKind string

const (
	KindBanana     ItemKind = "banana"
	KindPeach      ItemKind = "peach"
	KindCoconut    ItemKind = "coconut"
	KindWatermelon ItemKind = "watermelon"
)

// Kinds returns every known item kind in display order.
func Kinds() []ItemKind {
	return []ItemKind{KindBanana, KindPeach, KindCoconut, KindWatermelon}
}

// Known reports whether k is part of the fixed item catalogue.
func (k ItemKind) Known() bool {
	switch k {
	case KindBanana, KindPeach, KindCoconut, KindWatermelon:
		return true
	}
	return false
}

// KnownKinds reports whether every key of m is a known item kind.
func KnownKinds(m map[ItemKind]int) bool {
	for k := range m {
		if !k.Known() {
			return false
		}
	}
	return true
}
