package config

import "gaswatch/internal/model"

func validTierName(name string) bool {
	return model.ValidTier(name)
}

// DefaultNetworks returns the built-in descriptor table used when the config
// file names no networks. Thresholds are Gwei; L2 networks suppress the
// high-tier alerts because their fee scale sits far below the L1 thresholds.
func DefaultNetworks() map[string]NetworkConfig {
	return map[string]NetworkConfig{
		"ethereum": {
			Name:        "Ethereum",
			ChainID:     1,
			NativeToken: "ETH",
			BlockTime:   12,
			ExplorerURL: "https://etherscan.io",
			Thresholds: map[string]float64{
				"ultra_low":  15,
				"low":        20,
				"medium":     35,
				"high":       50,
				"ultra_high": 100,
			},
			RPCURLs:          PublicEndpoints("ethereum"),
			FeeHistoryBlocks: 16,
		},
		"arbitrum": {
			Name:        "Arbitrum One",
			ChainID:     42161,
			NativeToken: "ETH",
			IsL2:        true,
			BlockTime:   0,
			ExplorerURL: "https://arbiscan.io",
			Thresholds: map[string]float64{
				"low":    0.1,
				"medium": 0.3,
				"high":   1.0,
			},
			DisableFastAlerts: true,
			RPCURLs:           PublicEndpoints("arbitrum"),
			FeeHistoryBlocks:  16,
		},
		"optimism": {
			Name:        "Optimism",
			ChainID:     10,
			NativeToken: "ETH",
			IsL2:        true,
			BlockTime:   2,
			ExplorerURL: "https://optimistic.etherscan.io",
			Thresholds: map[string]float64{
				"low":    0.1,
				"medium": 0.3,
				"high":   1.0,
			},
			DisableFastAlerts: true,
			RPCURLs:           PublicEndpoints("optimism"),
			FeeHistoryBlocks:  16,
		},
		"base": {
			Name:        "Base",
			ChainID:     8453,
			NativeToken: "ETH",
			IsL2:        true,
			BlockTime:   2,
			ExplorerURL: "https://basescan.org",
			Thresholds: map[string]float64{
				"low":    0.1,
				"medium": 0.3,
				"high":   1.0,
			},
			DisableFastAlerts: true,
			RPCURLs:           PublicEndpoints("base"),
			FeeHistoryBlocks:  16,
		},
		"polygon": {
			Name:        "Polygon PoS",
			ChainID:     137,
			NativeToken: "MATIC",
			BlockTime:   2,
			ExplorerURL: "https://polygonscan.com",
			Thresholds: map[string]float64{
				"low":    30,
				"medium": 60,
				"high":   100,
			},
			RPCURLs:          PublicEndpoints("polygon"),
			FeeHistoryBlocks: 16,
		},
	}
}

// PublicEndpoints lists well-known public RPC endpoints for a network key.
func PublicEndpoints(network string) []string {
	switch network {
	case "ethereum":
		return []string{
			"https://rpc.ankr.com/eth",
			"https://eth.llamarpc.com",
			"https://eth-mainnet.public.blastapi.io",
			"https://ethereum.publicnode.com",
		}
	case "arbitrum":
		return []string{
			"https://rpc.ankr.com/arbitrum",
			"https://arbitrum.llamarpc.com",
			"https://arbitrum.publicnode.com",
			"https://arb1.arbitrum.io/rpc",
		}
	case "optimism":
		return []string{
			"https://rpc.ankr.com/optimism",
			"https://optimism.llamarpc.com",
			"https://optimism.publicnode.com",
			"https://mainnet.optimism.io",
		}
	case "base":
		return []string{
			"https://rpc.ankr.com/base",
			"https://base.llamarpc.com",
			"https://base.publicnode.com",
			"https://mainnet.base.org",
		}
	case "polygon":
		return []string{
			"https://rpc.ankr.com/polygon",
			"https://polygon.llamarpc.com",
			"https://polygon-bor.publicnode.com",
		}
	default:
		return nil
	}
}
