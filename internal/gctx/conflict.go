package gctx

// ConflictAction decides what a mutating operation does when the target
// configuration name is already taken.
type ConflictAction int

const (
	// ConflictFail rejects the operation with domain.ErrAlreadyExists.
	ConflictFail ConflictAction = iota
	// ConflictOverwrite replaces the existing configuration after backing it up.
	ConflictOverwrite
)

// ConflictFromForce maps a --force flag onto a ConflictAction.
func ConflictFromForce(force bool) ConflictAction {
	if force {
		return ConflictOverwrite
	}
	return ConflictFail
}

func (c ConflictAction) String() string {
	switch c {
	case ConflictFail:
		return "fail"
	case ConflictOverwrite:
		return "overwrite"
	default:
		return "unknown"
	}
}
