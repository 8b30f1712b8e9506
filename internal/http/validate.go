package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"go.ngs.io/reanalysis-maps/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		_, err := domain.VariantByName(fl.Field().String())
		return err == nil
	})
	return v
}

// mapURI holds the path parameters of the map and grid endpoints.
type mapURI struct {
	Variant string `uri:"variant" validate:"required,variant"`
	Date    string `uri:"date" validate:"required,calendar_date"`
}

// pointQuery holds the coordinates of the point endpoint.
type pointQuery struct {
	Lat *float64 `form:"lat" validate:"required,latitude"`
	Lon *float64 `form:"lon" validate:"required,longitude"`
}

// request converts validated parameters into a use case request.
func (u mapURI) request() (domain.Variant, domain.Date) {
	v, _ := domain.VariantByName(u.Variant)
	d, _ := domain.ParseDate(u.Date)
	return v, d
}

// validationMessage renders validator errors as one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "calendar_date":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q (expected YYYY-MM-DD)", field, fe.Value()))
		case "latitude", "longitude":
			msgs = append(msgs, fmt.Sprintf("%s out of range", field))
		case "variant":
			msgs = append(msgs, fmt.Sprintf("unknown variant %q", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s", field))
		}
	}
	return strings.Join(msgs, "; ")
}
