package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration using struct tags plus rules that
// tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	switch cfg.Metadata.Type {
	case "badger":
		if _, ok := cfg.Metadata.Badger["path"]; !ok {
			if inMem, _ := cfg.Metadata.Badger["in_memory"].(bool); !inMem {
				return fmt.Errorf("metadata.badger: path is required unless in_memory is true")
			}
		}
	}

	switch cfg.Content.Type {
	case "filesystem":
		if _, ok := cfg.Content.Filesystem["path"]; !ok {
			return fmt.Errorf("content.filesystem: path is required")
		}
	case "s3":
		for _, key := range []string{"bucket", "region"} {
			if _, ok := cfg.Content.S3[key]; !ok {
				return fmt.Errorf("content.s3: %s is required", key)
			}
		}
	}

	return nil
}

// formatValidationError turns the first validator error into a readable
// message.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: failed '%s' validation (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
