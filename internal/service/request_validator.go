package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/learning-agent/internal/models"
)

// RequestValidator checks learn and classify requests before they reach the engine
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their JSON names
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// ValidateLearnRequest checks schema constraints and the ordering of every price series
func (rv *RequestValidator) ValidateLearnRequest(req *models.LearnRequest) error {
	if req.Mode != "" && !req.Mode.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidMode, req.Mode)
	}
	if req.Indicators != nil {
		if err := rv.ValidateSettings(*req.Indicators); err != nil {
			return err
		}
	}
	if err := rv.structErr(req); err != nil {
		return err
	}

	if err := validateSeries("price_history", req.PriceHistory); err != nil {
		return err
	}
	for asset, bars := range req.AssetPriceHistory {
		if err := rv.structErr(bars); err != nil {
			return err
		}
		if err := validateSeries("asset_price_history."+asset, bars); err != nil {
			return err
		}
	}
	return nil
}

// ValidateClassifyRequest checks indicator settings and the price series
func (rv *RequestValidator) ValidateClassifyRequest(req *models.ClassifyRequest) error {
	if err := rv.ValidateSettings(req.Indicators); err != nil {
		return err
	}
	if err := rv.structErr(req); err != nil {
		return err
	}
	return validateSeries("price_history", req.PriceHistory)
}

// ValidateSettings checks indicator window lengths
func (rv *RequestValidator) ValidateSettings(s models.IndicatorSettings) error {
	if err := rv.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidSettings, describe(err))
	}
	return nil
}

func (rv *RequestValidator) structErr(v interface{}) error {
	var err error
	if reflect.ValueOf(v).Kind() == reflect.Slice {
		err = rv.validate.Var(v, "dive")
	} else {
		err = rv.validate.Struct(v)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidRequest, describe(err))
	}
	return nil
}

// validateSeries requires strictly increasing timestamps and sane bar ranges. A series that
// carries no timestamps at all is taken in the order given.
func validateSeries(field string, bars []models.PricePoint) error {
	timed := false
	for _, b := range bars {
		if !b.Timestamp.IsZero() {
			timed = true
			break
		}
	}

	for i, b := range bars {
		if b.High < b.Low {
			return fmt.Errorf("%w: %s[%d] high %.6g is below low %.6g", models.ErrInvalidRequest, field, i, b.High, b.Low)
		}
		if timed && i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: %s[%d] at %s does not follow %s", models.ErrUnorderedSeries, field, i,
				b.Timestamp.Format("2006-01-02T15:04:05Z07:00"), bars[i-1].Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
	}
	return nil
}

// describe flattens validator errors into one line
func describe(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "gtfield":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, "; ")
}
