package errors

import "errors"

var (
	ErrManifestNotFound    = errors.New("manifest file not found")
	ErrManifestParseFailed = errors.New("manifest parsing failed")
	ErrConfigInvalid       = errors.New("configuration invalid")
	ErrPrepareFailed       = errors.New("environment preparation failed")
	ErrLaunchFailed        = errors.New("container launch failed")
	ErrRuntimeFailed       = errors.New("runtime operation failed")
	ErrRegistryAuthFailed  = errors.New("registry authentication failed")
	ErrTestsFailed         = errors.New("one or more test groups failed")
)

type ShardCIError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *ShardCIError) Error() string {
	return e.OriginalErr.Error()
}

func (e *ShardCIError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target matches this error's taxonomy type, so callers
// can test errors.Is(err, ErrConfigInvalid) without unwrapping manually.
func (e *ShardCIError) Is(target error) bool {
	return e.Type == target
}

func NewShardCIError(errorType error, context, cause, suggestion string, originalErr error) *ShardCIError {
	return &ShardCIError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewManifestError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrManifestNotFound, context, cause, suggestion, originalErr)
}

func NewParseError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrManifestParseFailed, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewPrepareError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrPrepareFailed, context, cause, suggestion, originalErr)
}

func NewLaunchError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrLaunchFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewRegistryAuthError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrRegistryAuthFailed, context, cause, suggestion, originalErr)
}

func NewTestFailureError(context, cause, suggestion string, originalErr error) *ShardCIError {
	return NewShardCIError(ErrTestsFailed, context, cause, suggestion, originalErr)
}
