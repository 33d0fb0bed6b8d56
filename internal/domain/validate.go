package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the question is complete and its answer key points at one of its choices.
func (q Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	seen := make(map[int]struct{}, len(q.Choices))
	for _, c := range q.Choices {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate choice id %d", ErrInvalidQuestion, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	if !q.HasChoice(q.CorrectChoiceID) {
		return fmt.Errorf("%w: correct choice %d is not one of the choices", ErrInvalidQuestion, q.CorrectChoiceID)
	}
	return nil
}
