// Package config holds the runtime settings shared by the CLI and the HTTP
// server.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/extrato-analyzer/internal/detector"
	"github.com/insightdelivered/extrato-analyzer/internal/score"
)

// Config is the full set of tunables.
type Config struct {
	Listen      string `yaml:"listen" json:"listen" validate:"required,hostname_port"`
	BodyLimitMB int    `yaml:"body_limit_mb" json:"bodyLimitMB" validate:"gte=1,lte=512"`
	Concurrency int    `yaml:"concurrency" json:"concurrency" validate:"gte=1,lte=64"`
	LogLevel    string `yaml:"log_level" json:"logLevel" validate:"oneof=trace debug info warn error disabled"`
	RecencyDays int    `yaml:"recency_days" json:"recencyDays" validate:"gte=1,lte=365"`

	Detector detector.Thresholds `yaml:"detector" json:"detector"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Listen:      ":8080",
		BodyLimitMB: 20,
		Concurrency: 4,
		LogLevel:    "info",
		RecencyDays: score.DefaultRecencyDays,
		Detector:    detector.DefaultThresholds(),
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	if err := v.RegisterValidation("decimalGreaterThan", decimalGreaterThan); err != nil {
		panic(fmt.Sprintf("config: registering decimalGreaterThan: %v", err))
	}
	return v
}

// decimalGreaterThan compares a decimal, already converted to its string
// form by the custom type func, against the tag parameter.
func decimalGreaterThan(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	limit, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	return value.GreaterThan(limit)
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs *multierror.Error
	if err := validate.Struct(c); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			for _, fe := range valErrs {
				errs = multierror.Append(errs, fmt.Errorf("%s: failed %s", fe.Namespace(), strings.TrimSpace(fe.Tag()+" "+fe.Param())))
			}
		}
	}
	return errs.ErrorOrNil()
}
