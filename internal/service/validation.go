package service

import (
	"errors"
	"reflect"
	"strings"

	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/model"

	"github.com/go-playground/validator/v10"
)

const (
	MsgDescriptionRequired = "Incident description is required."
	MsgNameRequired        = "Full name is required."
	MsgEmailInvalid        = "Valid email address is required."
	MsgStreetRequired      = "Street address is required."
	MsgBarangayRequired    = "Barangay is required."
	MsgLocationRequired    = "Real-time location is required. Please enable location access."
	MsgLocationOutside     = "Your location is outside Baguio City. Please ensure you are within Baguio City to report an incident."
	MsgPriorityInvalid     = "Priority must be low, medium or high."
	MsgAccuracyInvalid     = "Location accuracy cannot be negative."
	MsgNoChanges           = "No changes provided."
)

var fieldMessages = map[string]string{
	"description":      MsgDescriptionRequired,
	"reporterName":     MsgNameRequired,
	"reporterEmail":    MsgEmailInvalid,
	"street":           MsgStreetRequired,
	"barangay":         MsgBarangayRequired,
	"location":         MsgLocationRequired,
	"priority":         MsgPriorityInvalid,
	"locationAccuracy": MsgAccuracyInvalid,
}

type citizenIdentity struct {
	ReporterName  string `json:"reporterName" validate:"required"`
	ReporterEmail string `json:"reporterEmail" validate:"required,email"`
}

type editableFields struct {
	Description *string `json:"description" validate:"omitempty,min=1"`
	Street      *string `json:"street" validate:"omitempty,min=1"`
	Barangay    *string `json:"barangay" validate:"omitempty,min=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateSubmission checks a normalized payload. Citizens must also
// identify themselves by name and email.
func validateSubmission(req *model.SubmitReportRequest, citizen bool) error {
	verr := &model.ValidationError{}

	collect(verr, validate.Struct(req))
	if citizen {
		collect(verr, validate.Struct(citizenIdentity{
			ReporterName:  req.ReporterName,
			ReporterEmail: req.ReporterEmail,
		}))
	}

	switch err := geo.ValidateLocation(req.Location); {
	case errors.Is(err, geo.ErrLocationMissing):
		verr.Add("location", MsgLocationRequired)
	case errors.Is(err, geo.ErrOutOfBounds):
		verr.Add("location", MsgLocationOutside)
	}

	return verr.OrNil()
}

func validateUpdate(req *model.UpdateReportRequest) error {
	verr := &model.ValidationError{}
	if req.Empty() {
		verr.Add("update", MsgNoChanges)
		return verr
	}
	collect(verr, validate.Struct(editableFields{
		Description: req.Description,
		Street:      req.Street,
		Barangay:    req.Barangay,
	}))
	return verr.OrNil()
}

func collect(verr *model.ValidationError, err error) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("request", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		verr.Add(fe.Field(), msg)
	}
}
