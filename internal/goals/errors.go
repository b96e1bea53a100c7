package goals

import "errors"

var (
	// ErrNotFound indicates the goal does not exist for the caller.
	ErrNotFound = errors.New("goal not found")
	// ErrStepNotFound indicates the step does not exist on the goal.
	ErrStepNotFound = errors.New("step not found")
	// ErrTemplateNotFound indicates the template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateForbidden indicates a private template owned by someone else.
	ErrTemplateForbidden = errors.New("access denied")
	// ErrInvalidRange indicates a due date before the start date.
	ErrInvalidRange = errors.New("due date must be on or after start date")
)
