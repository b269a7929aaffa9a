package domain

import "errors"

// Configuration errors. They abort a run at setup.
var (
	// ErrInvalidConfig is returned when a numeric setting is out of range.
	ErrInvalidConfig = errors.New("invalid sampler configuration")

	// ErrUnknownProblem is returned for an unregistered problem name.
	ErrUnknownProblem = errors.New("unknown problem")

	// ErrUnknownDistribution is returned for an unregistered error distribution name.
	ErrUnknownDistribution = errors.New("unknown error distribution")

	// ErrUnknownEngine is returned for an unregistered engine name.
	ErrUnknownEngine = errors.New("unknown engine")

	// ErrUnknownModel is returned for an unregistered model name.
	ErrUnknownModel = errors.New("unknown model")

	// ErrStaticModel is returned when a dynamic-only engine is requested for a static model.
	ErrStaticModel = errors.New("engine requires a dynamic model")

	// ErrInvalidKeep is returned when the dictionary of kept parameters names a
	// non-existing parameter.
	ErrInvalidKeep = errors.New("invalid keep dictionary")

	// ErrMissingPrior is returned when a fitted parameter has no prior.
	ErrMissingPrior = errors.New("missing prior")

	// ErrInvalidPrior is returned when a prior is constructed with bad settings.
	ErrInvalidPrior = errors.New("invalid prior")

	// ErrInvalidProblem is returned when data and model do not fit together.
	ErrInvalidProblem = errors.New("invalid problem")

	// ErrDataMismatch is returned when composed error distributions do not share data.
	ErrDataMismatch = errors.New("error distributions do not share data")

	// ErrInvalidHyperParameter is returned for bad hyperparameter limits.
	ErrInvalidHyperParameter = errors.New("invalid hyperparameter")
)

// ErrCheckpointNotFound is returned when a run ID cannot be found in the store.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrAlreadySampled is returned when Sample is called on a terminated sampler.
var ErrAlreadySampled = errors.New("sampler already terminated")

// ErrRunLocked is returned when another process holds the lease of a run.
var ErrRunLocked = errors.New("run is locked by another sampler")
