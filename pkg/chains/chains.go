package chains

const (
	// ArbitrumSepoliaChainID is the chain ID of Arbitrum Sepolia
	ArbitrumSepoliaChainID int64 = 421614

	// OptimismSepoliaChainID is the chain ID of Optimism Sepolia
	OptimismSepoliaChainID int64 = 11155420
)

// ChainList contains the list of chain IDs the relayer knows by name
var ChainList = []int64{
	1,        // Ethereum
	10,       // Optimism
	42161,    // Arbitrum
	8453,     // Base
	11155111, // Sepolia
	421614,   // Arbitrum Sepolia
	11155420, // Optimism Sepolia
	84532,    // Base Sepolia
}

// chainNames maps chain IDs to their names
var chainNames = map[int64]string{
	1:        "ETHEREUM",
	10:       "OPTIMISM",
	42161:    "ARBITRUM",
	8453:     "BASE",
	11155111: "SEPOLIA",
	421614:   "ARBITRUM_SEPOLIA",
	11155420: "OPTIMISM_SEPOLIA",
	84532:    "BASE_SEPOLIA",
}

// defaultRPCURLs maps chain IDs to public RPC endpoints
var defaultRPCURLs = map[int64]string{
	421614:   "https://sepolia-rollup.arbitrum.io/rpc",
	11155420: "https://sepolia.optimism.io",
	84532:    "https://sepolia.base.org",
	11155111: "https://rpc.sepolia.org",
}

// GetChainName returns the name of the chain for a given chain ID
func GetChainName(chainID int64) string {
	name, exists := chainNames[chainID]
	if !exists {
		return ""
	}
	return name
}

// GetDefaultRPCURL returns the public RPC endpoint for a chain, or an empty string
func GetDefaultRPCURL(chainID int64) string {
	return defaultRPCURLs[chainID]
}
