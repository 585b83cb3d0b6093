package params

const (
	Mainnet ConfigName = iota
	Sepolia
	Goerli
)

// ConfigNames provides network configuration names.
var ConfigNames = map[ConfigName]string{
	Mainnet: "mainnet",
	Sepolia: "sepolia",
	Goerli:  "goerli",
}

// ConfigName enum describes the type of known network.
type ConfigName = int
