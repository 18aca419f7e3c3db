package filesystem

import "errors"

// Sentinel errors surfaced by sandbox operations. Callers compare with
// errors.Is; underlying OS errors remain in the chain.
var (
	// ErrSelfTarget means the destination of an operation is equal to or
	// nested under its own source.
	ErrSelfTarget = errors.New("destination resides within source")

	// ErrOutsideRoot means a resolved path escapes the instance root after
	// symlinks are taken into account.
	ErrOutsideRoot = errors.New("path escapes instance root")

	// ErrNotAFile means the target exists but is not a regular file.
	ErrNotAFile = errors.New("target is not a file")

	// ErrNotADirectory means the target exists but is not a directory.
	ErrNotADirectory = errors.New("target is not a directory")

	// ErrTooLarge means a file exceeds the in-memory read ceiling.
	ErrTooLarge = errors.New("file exceeds read limit")

	// ErrProtectedPath means the operation would remove the instance root.
	ErrProtectedPath = errors.New("instance root is protected")

	// ErrShapeMismatch means exactly one of a paired batch argument was a
	// sequence.
	ErrShapeMismatch = errors.New("mismatched single and batch arguments")

	// ErrLengthMismatch means paired batch arguments differ in length.
	ErrLengthMismatch = errors.New("batch arguments differ in length")

	// ErrInvalidArgument means a path argument decoded from the API was
	// neither a string nor an array of strings.
	ErrInvalidArgument = errors.New("argument must be a path or array of paths")

	// ErrNoValidEntries means every compress candidate was rejected as
	// self-referential.
	ErrNoValidEntries = errors.New("no valid entries to archive")

	// ErrDestinationExists means the copy destination already exists and
	// clobbering was not requested.
	ErrDestinationExists = errors.New("destination already exists")
)
