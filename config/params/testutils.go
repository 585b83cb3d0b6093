package params

import (
	"testing"
)

// SetupTestConfigCleanup preserves configurations allowing to modify them within tests without any
// risk of contaminating other tests.
func SetupTestConfigCleanup(t testing.TB) {
	prevDefaultBeaconConfig := mainnetBeaconConfig.Copy()
	temp := beaconConfig.Copy()
	undo := func() {
		mainnetBeaconConfig = prevDefaultBeaconConfig
		beaconConfig = temp
	}
	prevNetworkCfg := networkConfig.Copy()
	t.Cleanup(func() {
		undo()
		networkConfig = prevNetworkCfg
	})
}
