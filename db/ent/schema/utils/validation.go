package utils

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func EnumValidator(allowed ...string) func(string) error {
	set := map[string]struct{}{}
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(s string) error {
		if _, ok := set[s]; ok {
			return nil
		}
		return errors.New("validation failed")
	}
}

func IntRangeValidator(min, max int) func(int) error {
	return func(n int) error {
		if n < min || n > max {
			return fmt.Errorf("value %d out of range [%d, %d]", n, min, max)
		}
		return nil
	}
}

func UUIDValidator() func(string) error {
	return func(s string) error {
		if _, err := uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid uuid: %w", err)
		}
		return nil
	}
}
