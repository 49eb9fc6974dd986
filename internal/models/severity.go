package models

// Severity is one of the three fixed defect levels
type Severity string

const (
	SeverityErnstig Severity = "ernstig" // severe
	SeveritySerieus Severity = "serieus" // serious
	SeverityGering  Severity = "gering"  // minor
)

// Severities lists the levels from most to least severe
var Severities = []Severity{SeverityErnstig, SeveritySerieus, SeverityGering}

// IsValid reports whether s is a known level
func (s Severity) IsValid() bool {
	switch s {
	case SeverityErnstig, SeveritySerieus, SeverityGering:
		return true
	}
	return false
}

func (s Severity) String() string {
	return string(s)
}

// DefectSet maps a severity to the ordered, de-duplicated defect names in that bucket
type DefectSet map[Severity][]string

// Has reports whether name is present under severity
func (d DefectSet) Has(severity Severity, name string) bool {
	for _, n := range d[severity] {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns a copy of the names under severity, never nil
func (d DefectSet) Names(severity Severity) []string {
	out := make([]string, len(d[severity]))
	copy(out, d[severity])
	return out
}

// Add appends name under severity unless it is already present.
// Returns true if the set changed.
func (d DefectSet) Add(severity Severity, name string) bool {
	if d.Has(severity, name) {
		return false
	}
	d[severity] = append(d[severity], name)
	return true
}

// Remove drops name from severity. Empty buckets are deleted.
// Returns true if the set changed.
func (d DefectSet) Remove(severity Severity, name string) bool {
	names := d[severity]
	for i, n := range names {
		if n != name {
			continue
		}
		rest := make([]string, 0, len(names)-1)
		rest = append(rest, names[:i]...)
		rest = append(rest, names[i+1:]...)
		if len(rest) == 0 {
			delete(d, severity)
		} else {
			d[severity] = rest
		}
		return true
	}
	return false
}

// Count returns the number of names across all severities
func (d DefectSet) Count() int {
	total := 0
	for _, names := range d {
		total += len(names)
	}
	return total
}

// Clone returns a deep copy. A nil set clones to an empty one.
func (d DefectSet) Clone() DefectSet {
	out := make(DefectSet, len(d))
	for sev, names := range d {
		cp := make([]string, len(names))
		copy(cp, names)
		out[sev] = cp
	}
	return out
}
