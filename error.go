package tinylfu

import "fmt"

type constError string

const (
	// ErrInvalidCapacity may be returned from [New].
	ErrInvalidCapacity = constError("invalid capacity")
	// ErrInvalidOption may be returned from [New]
	// when an [Option] carries an out of range value.
	ErrInvalidOption = constError("invalid option")
)

func (errStr constError) Error() string { return string(errStr) }

func minCapacityError(capacity int) error {
	return fmt.Errorf(
		"%w: must be >=%d but %d was requested",
		ErrInvalidCapacity, MinimumCapacity, capacity)
}

func optionError(name string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s",
		ErrInvalidOption, name, fmt.Sprintf(format, args...))
}
