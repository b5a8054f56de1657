package kinematic

import "errors"

var (
	ErrUnsupportedMateType       = errors.New("unsupported mate type for a degree of freedom")
	ErrDuplicateDOF              = errors.New("child already driven by another degree of freedom")
	ErrPropagationDidNotConverge = errors.New("part assignment did not converge")
	ErrConflictingLinkName       = errors.New("conflicting link names")
	ErrOrphanedRelation          = errors.New("joint not reachable from trunk")
)
