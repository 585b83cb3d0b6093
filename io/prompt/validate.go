package prompt

import (
	"strings"

	"github.com/pkg/errors"
)

// ValidateYesOrNo ensures the user input is a yes or a no.
func ValidateYesOrNo(input string) error {
	lowercase := strings.ToLower(input)
	if lowercase != "y" && lowercase != "n" && lowercase != "yes" && lowercase != "no" {
		return errors.New("please enter y or n")
	}
	return nil
}
