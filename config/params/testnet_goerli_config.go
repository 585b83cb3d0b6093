package params

// goerliGenesisValidatorsRoot is the hash tree root of the Goerli genesis
// validator registry, 0x043db0d9a83813551ee2f33450d23797757d430911a9320530ad8a0eabc43efb.
var goerliGenesisValidatorsRoot = [32]byte{
	0x04, 0x3d, 0xb0, 0xd9, 0xa8, 0x38, 0x13, 0x55, 0x1e, 0xe2, 0xf3, 0x34, 0x50, 0xd2, 0x37, 0x97,
	0x75, 0x7d, 0x43, 0x09, 0x11, 0xa9, 0x32, 0x05, 0x30, 0xad, 0x8a, 0x0e, 0xab, 0xc4, 0x3e, 0xfb,
}

// UseGoerliNetworkConfig uses the Goerli beacon chain specific network config.
func UseGoerliNetworkConfig() {
	cfg := BeaconNetworkConfig().Copy()
	cfg.CheckpointSyncURLs = []string{
		"https://goerli.beaconstate.ethstaker.cc",
		"https://sync-goerli.beaconcha.in",
		"https://goerli.beaconstate.info",
		"https://checkpoint-sync.goerli.ethpandaops.io",
	}
	OverrideBeaconNetworkConfig(cfg)
}

// UseGoerliConfig sets the main beacon chain config for the Goerli testnet,
// formerly named Prater.
func UseGoerliConfig() {
	beaconConfig = GoerliConfig()
}

// GoerliConfig defines the config for the Goerli beacon chain testnet.
func GoerliConfig() *BeaconChainConfig {
	cfg := MainnetConfig().Copy()
	cfg.ConfigName = ConfigNames[Goerli]
	cfg.PresetBase = "mainnet"
	cfg.MinGenesisTime = 1614588812
	cfg.GenesisDelay = 1919188
	cfg.GenesisForkVersion = []byte{0x00, 0x00, 0x10, 0x20}
	cfg.AltairForkVersion = []byte{0x01, 0x00, 0x10, 0x20}
	cfg.AltairForkEpoch = 36660
	cfg.BellatrixForkVersion = []byte{0x02, 0x00, 0x10, 0x20}
	cfg.BellatrixForkEpoch = 112260
	cfg.CapellaForkVersion = []byte{0x03, 0x00, 0x10, 0x20}
	cfg.CapellaForkEpoch = 162304
	cfg.DenebForkVersion = []byte{0x04, 0x00, 0x10, 0x20}
	cfg.DenebForkEpoch = 231680
	cfg.GenesisTime = 1616508000 // Mar 23, 2021, 2pm UTC.
	cfg.GenesisValidatorsRoot = goerliGenesisValidatorsRoot
	cfg.DepositChainID = 5
	cfg.DepositNetworkID = 5
	cfg.InitializeForkSchedule()
	return cfg
}
