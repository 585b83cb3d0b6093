package cmd

import (
	"github.com/prysmaticlabs/lumen/io/prompt"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "cmd")

// ConfirmAction uses the passed in actionText as the confirmation text displayed in the terminal.
// The user must confirm the prompt to indicate whether they accept the action described in the
// warning text. Returns a boolean representing the user's answer.
func ConfirmAction(actionText, deniedText string) (bool, error) {
	confirmed, err := prompt.ConfirmPrompt(actionText)
	if err != nil {
		return false, err
	}
	if !confirmed {
		log.Info(deniedText)
	}
	return confirmed, nil
}
