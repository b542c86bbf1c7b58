package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("indian_state", func(fl validator.FieldLevel) bool {
		return models.IsIndianState(fl.Field().String())
	})
	return v
}

// validationError turns the first validator failure into a ValidationError
// with a readable message.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "len":
		msg = fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "numeric":
		msg = fmt.Sprintf("%s must contain only digits", fe.Field())
	case "indian_state":
		msg = fmt.Sprintf("%s is not a valid state", fe.Field())
	case "gt", "gte", "ltefield", "min", "max":
		msg = fmt.Sprintf("%s is out of range", fe.Field())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return apperrors.Validation(msg)
}

// parseObjectID validates a 24-hex id.
func parseObjectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// ValidProductID reports whether id has the catalog identifier format.
func ValidProductID(id string) bool {
	_, ok := parseObjectID(id)
	return ok && id == strings.TrimSpace(id)
}
