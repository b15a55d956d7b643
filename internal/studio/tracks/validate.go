package tracks

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// ValidateDraft checks a draft before it is handed to a Store.
func ValidateDraft(d Draft) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}
	return nil
}

// ValidatePatch checks a patch before it is handed to a Store. Effect stacks
// are validated separately against an effect catalog.
func ValidatePatch(p Patch) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}
	return nil
}
