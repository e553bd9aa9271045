package mode

// Mode is the query mode.
type Mode string

// Query mode constants.
const (
	// Text encodes a free-text description into the shared embedding space.
	Text Mode = "text"
	// Entity reuses an existing entity's stored vector.
	Entity Mode = "entity"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Text || m == Entity
}
