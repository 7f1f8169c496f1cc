package args

// Mode controls what container accessors expose. In Describe mode reads and
// writes deal in descriptor objects; in Use mode they deal in raw values
// routed through each descriptor's setter.
type Mode int

const (
	// Describe exposes descriptor objects for editing and CLI binding.
	Describe Mode = iota + 1
	// Use exposes and accepts raw argument values for execution.
	Use
)

// String returns the mode's display name.
func (m Mode) String() string {
	switch m {
	case Describe:
		return "describe"
	case Use:
		return "use"
	}
	return "invalid"
}
