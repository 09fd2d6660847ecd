package supervisor

// Target is a (group, runlevel) directive. The zero value is the sentinel
// spec.md §3 calls "no directive yet — start nothing."
type Target struct {
	Group    string
	Runlevel string
}

// IsZero reports whether t is the "no directive yet" sentinel.
func (t Target) IsZero() bool { return t.Group == "" && t.Runlevel == "" }
