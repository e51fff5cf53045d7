package domain

// Field is a tri-state update value: left unchanged, cleared, or set.
// The zero value is Unchanged.
type Field[T any] struct {
	state fieldState
	value T
}

type fieldState uint8

const (
	fieldUnchanged fieldState = iota
	fieldClear
	fieldSet
)

// Set returns a Field that assigns v.
func Set[T any](v T) Field[T] { return Field[T]{state: fieldSet, value: v} }

// Clear returns a Field that resets the column to null.
func Clear[T any]() Field[T] { return Field[T]{state: fieldClear} }

// Unchanged returns a Field that leaves the column alone.
func Unchanged[T any]() Field[T] { return Field[T]{} }

func (f Field[T]) IsUnchanged() bool { return f.state == fieldUnchanged }
func (f Field[T]) IsClear() bool     { return f.state == fieldClear }
func (f Field[T]) IsSet() bool       { return f.state == fieldSet }

// Value returns the assigned value and whether one was set.
func (f Field[T]) Value() (T, bool) { return f.value, f.state == fieldSet }

// Ptr resolves the field against the current value: nil when cleared,
// the new value when set, current otherwise.
func (f Field[T]) Ptr(current *T) *T {
	switch f.state {
	case fieldClear:
		return nil
	case fieldSet:
		v := f.value
		return &v
	default:
		return current
	}
}
