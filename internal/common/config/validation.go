package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Validate runs the struct tag validation of config and logs every failing field.
func Validate(config interface{}) error {
	err := validator.New().Struct(config)
	if err != nil {
		LogValidationErrors(err)
		return errors.WithMessage(err, "invalid configuration")
	}
	return nil
}

func LogValidationErrors(err error) {
	if err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			log.Errorf("ConfigError: %s", err)
			return
		}
		for _, err := range validationErrors {
			fieldName := stripPrefix(err.Namespace())
			tag := err.Tag()
			switch tag {
			case "required":
				log.Errorf("ConfigError: Field %s is required but was not found", fieldName)
			default:
				log.Errorf("ConfigError: Field %s has invalid value %v: %s", fieldName, err.Value(), tag)
			}
		}
	}
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
