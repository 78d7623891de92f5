package speculation

// Valid is the single-flag form of AllValid. A nil flag counts as invalid.
func Valid(f *Flag) bool {
	return f != nil && f.IsValid()
}

// AllValid reports whether every flag in the slice is valid.
//
//   - nil slice: false (no assumption set at all)
//   - empty slice: true
//   - otherwise: false on the first nil or invalid element, in order
//
// Each element check is a single atomic load with no side effects, so a
// caller holding a small fixed set may evaluate the elements independently.
func AllValid(flags []*Flag) bool {
	if flags == nil {
		return false
	}
	for _, f := range flags {
		if !Valid(f) {
			return false
		}
	}
	return true
}
