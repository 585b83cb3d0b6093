package params

// sepoliaGenesisValidatorsRoot is the hash tree root of the Sepolia genesis
// validator registry, 0xd8ea171f3c94aea21ebc42a1ed61052acf3f9209c00e4efbaaddac09ed9b8078.
var sepoliaGenesisValidatorsRoot = [32]byte{
	0xd8, 0xea, 0x17, 0x1f, 0x3c, 0x94, 0xae, 0xa2, 0x1e, 0xbc, 0x42, 0xa1, 0xed, 0x61, 0x05, 0x2a,
	0xcf, 0x3f, 0x92, 0x09, 0xc0, 0x0e, 0x4e, 0xfb, 0xaa, 0xdd, 0xac, 0x09, 0xed, 0x9b, 0x80, 0x78,
}

// UseSepoliaNetworkConfig uses the Sepolia beacon chain specific network config.
func UseSepoliaNetworkConfig() {
	cfg := BeaconNetworkConfig().Copy()
	cfg.CheckpointSyncURLs = []string{
		"https://sepolia.beaconstate.info",
		"https://checkpoint-sync.sepolia.ethpandaops.io",
	}
	OverrideBeaconNetworkConfig(cfg)
}

// UseSepoliaConfig sets the main beacon chain config for Sepolia.
func UseSepoliaConfig() {
	beaconConfig = SepoliaConfig()
}

// SepoliaConfig defines the config for the Sepolia beacon chain testnet.
func SepoliaConfig() *BeaconChainConfig {
	cfg := MainnetConfig().Copy()
	cfg.ConfigName = ConfigNames[Sepolia]
	cfg.PresetBase = "mainnet"
	cfg.MinGenesisTime = 1655647200
	cfg.GenesisDelay = 86400
	cfg.GenesisForkVersion = []byte{0x90, 0x00, 0x00, 0x69}
	cfg.AltairForkVersion = []byte{0x90, 0x00, 0x00, 0x70}
	cfg.AltairForkEpoch = 50
	cfg.BellatrixForkVersion = []byte{0x90, 0x00, 0x00, 0x71}
	cfg.BellatrixForkEpoch = 100
	cfg.CapellaForkVersion = []byte{0x90, 0x00, 0x00, 0x72}
	cfg.CapellaForkEpoch = 56832
	cfg.DenebForkVersion = []byte{0x90, 0x00, 0x00, 0x73}
	cfg.DenebForkEpoch = 132608
	cfg.GenesisTime = 1655733600 // Jun 20, 2022, 2pm UTC.
	cfg.GenesisValidatorsRoot = sepoliaGenesisValidatorsRoot
	cfg.DepositChainID = 11155111
	cfg.DepositNetworkID = 11155111
	cfg.InitializeForkSchedule()
	return cfg
}
