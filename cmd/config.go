package cmd

import (
	"github.com/urfave/cli/v2"
)

// Flags is a struct to represent which features the client will perform on
// runtime.
type Flags struct {
	// MaxGoroutines is the maximum number of running goroutines tolerated
	// by the sync service health check.
	MaxGoroutines int
}

var sharedConfig *Flags

// Get retrieves the shared configuration.
func Get() *Flags {
	if sharedConfig == nil {
		return &Flags{}
	}
	return sharedConfig
}

// Init sets the global config equal to the config that is passed in.
func Init(c *Flags) {
	sharedConfig = c
}

// InitWithReset sets the global config and returns a function that is used to
// reset the configuration to its original state.
func InitWithReset(c *Flags) func() {
	var prevConfig Flags
	if sharedConfig != nil {
		prevConfig = *sharedConfig
	} else {
		prevConfig = Flags{}
	}
	resetFunc := func() {
		Init(&prevConfig)
	}
	Init(c)
	return resetFunc
}

// ConfigureLightClient sets the global config based on what flags are enabled
// for the light client node.
func ConfigureLightClient(ctx *cli.Context) {
	complete := &Flags{}
	complete.MaxGoroutines = ctx.Int(MaxGoroutines.Name)
	Init(complete)
}
