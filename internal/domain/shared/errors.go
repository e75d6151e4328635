package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Buffer errors

// BufferFullError is returned when a pallet cannot be inserted because every
// slot of the buffer zone is occupied.
type BufferFullError struct {
	*DomainError
	Capacity int
}

func NewBufferFullError(capacity int) *BufferFullError {
	return &BufferFullError{
		DomainError: &DomainError{Message: fmt.Sprintf("buffer is full: all %d slots occupied", capacity)},
		Capacity:    capacity,
	}
}

// PalletNotFoundError is returned when a pallet id is not present in a zone.
type PalletNotFoundError struct {
	*DomainError
	PalletID string
}

func NewPalletNotFoundError(palletID string) *PalletNotFoundError {
	return &PalletNotFoundError{
		DomainError: &DomainError{Message: fmt.Sprintf("pallet %s not found", palletID)},
		PalletID:    palletID,
	}
}

// Task and stream errors

// InvalidTransitionError is returned when an entity is asked to move to a
// state that is not reachable from its current state.
type InvalidTransitionError struct {
	*DomainError
	From string
	To   string
}

func NewInvalidTransitionError(entity, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to)},
		From:        from,
		To:          to,
	}
}

// TaskAlreadyAssignedError is returned when a delivery task is bound to a
// second forklift while still held by the first.
type TaskAlreadyAssignedError struct {
	*DomainError
	TaskID     string
	ForkliftID string
}

func NewTaskAlreadyAssignedError(taskID, forkliftID string) *TaskAlreadyAssignedError {
	return &TaskAlreadyAssignedError{
		DomainError: &DomainError{Message: fmt.Sprintf("task %s is already assigned to forklift %s", taskID, forkliftID)},
		TaskID:      taskID,
		ForkliftID:  forkliftID,
	}
}

// ForkliftBusyError is returned when a forklift with a bound task receives
// another one.
type ForkliftBusyError struct {
	*DomainError
	ForkliftID string
}

func NewForkliftBusyError(forkliftID string) *ForkliftBusyError {
	return &ForkliftBusyError{
		DomainError: &DomainError{Message: fmt.Sprintf("forklift %s already has a task", forkliftID)},
		ForkliftID:  forkliftID,
	}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
