package scheduler

import "git.home.luguber.info/inful/lorasensor/internal/foundation/errors"

var (
	ErrDependencyCycle   = errors.ConfigError("service dependency cycle").Build()
	ErrUnknownDependency = errors.ConfigError("service depends on an unregistered service").Build()
	ErrDuplicateService  = errors.ConfigError("service already registered").Build()
	ErrInvalidService    = errors.ValidationError("invalid service").Build()
)
