// Package prompt reads and validates interactive terminal input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

var au = aurora.NewAurora(true)

// DefaultPrompt prompts the user for any text and performs no validation. If
// the user enters nothing, the default value is returned.
func DefaultPrompt(promptText, defaultValue string) (string, error) {
	var response string
	if defaultValue != "" {
		fmt.Printf("%s %s:\n", promptText, fmt.Sprintf("(%s: %s)", au.BrightGreen("default"), defaultValue))
	} else {
		fmt.Printf("%s:\n", promptText)
	}
	scanner := bufio.NewScanner(os.Stdin)
	if ok := scanner.Scan(); ok {
		item := scanner.Text()
		response = strings.TrimRight(item, "\r\n")
		if response == "" {
			return defaultValue, nil
		}
		return response, nil
	}
	return "", errors.New("could not scan text input")
}

// ValidatePrompt requests the user for text and expects it to fulfill the
// provided validation function.
func ValidatePrompt(r io.Reader, promptText string, validateFunc func(string) error) (string, error) {
	var responseValid bool
	var response string
	scanner := bufio.NewScanner(r)
	for !responseValid {
		fmt.Printf("%s:\n", promptText)
		if ok := scanner.Scan(); ok {
			item := scanner.Text()
			response = strings.TrimRight(item, "\r\n")
			if err := validateFunc(response); err != nil {
				fmt.Printf("Entry not valid: %s\n", err.Error())
			} else {
				responseValid = true
			}
		} else {
			return "", errors.New("could not scan text input")
		}
	}
	return response, nil
}

// ConfirmPrompt asks the user a yes or no question and reports the answer.
// Declining, aborting with ctrl-c, or closing stdin all count as a negative
// answer rather than an error.
func ConfirmPrompt(promptText string) (bool, error) {
	p := promptui.Prompt{
		Label:     promptText,
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, nil
		}
		return false, errors.Wrap(err, "could not read confirmation")
	}
	return true, nil
}
