package relayer

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/metrics"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
)

// RoutePolicy decides what happens to burns from a chain outside the configured pair
type RoutePolicy string

const (
	// RoutePolicyFallback mints on chain A for any unrecognised source chain
	RoutePolicyFallback RoutePolicy = "fallback"
	// RoutePolicyFailClosed refuses to relay burns from an unrecognised source chain
	RoutePolicyFailClosed RoutePolicy = "fail-closed"
)

// ParseRoutePolicy converts a configuration value into a RoutePolicy
func ParseRoutePolicy(s string) (RoutePolicy, error) {
	switch RoutePolicy(s) {
	case "", RoutePolicyFallback:
		return RoutePolicyFallback, nil
	case RoutePolicyFailClosed:
		return RoutePolicyFailClosed, nil
	}
	return "", fmt.Errorf("unknown route policy: %s", s)
}

// ChainEndpoint is one side of the bridged pair
type ChainEndpoint struct {
	ChainID  int64
	Contract common.Address
}

// RouteResolver maps a source chain to its destination within the configured pair
type RouteResolver struct {
	A      ChainEndpoint
	B      ChainEndpoint
	Policy RoutePolicy
	logger logger.Logger
}

// NewRouteResolver creates a resolver for the pair (a, b)
func NewRouteResolver(a, b ChainEndpoint, policy RoutePolicy, log logger.Logger) (*RouteResolver, error) {
	if a.ChainID == b.ChainID {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("source and destination chain are both %d", a.ChainID)}
	}
	if policy == "" {
		policy = RoutePolicyFallback
	}
	return &RouteResolver{A: a, B: b, Policy: policy, logger: log}, nil
}

// Resolve returns the route for a burn on sourceChainID
// The boolean is true when the route came from the fallback policy
func (r *RouteResolver) Resolve(sourceChainID int64) (models.ChainRoute, bool, error) {
	switch sourceChainID {
	case r.A.ChainID:
		return r.route(sourceChainID, r.B), false, nil
	case r.B.ChainID:
		return r.route(sourceChainID, r.A), false, nil
	}

	if r.Policy == RoutePolicyFailClosed {
		return models.ChainRoute{}, false, &RouteError{SourceChainID: sourceChainID}
	}

	r.logger.NoticeWithChain(sourceChainID, "Unrecognised source chain, routing to fallback chain %d", r.A.ChainID)
	metrics.RouteFallbacks.WithLabelValues(strconv.FormatInt(sourceChainID, 10)).Inc()
	return r.route(sourceChainID, r.A), true, nil
}

// Endpoint returns the side of the pair on chainID
func (r *RouteResolver) Endpoint(chainID int64) (ChainEndpoint, bool) {
	switch chainID {
	case r.A.ChainID:
		return r.A, true
	case r.B.ChainID:
		return r.B, true
	}
	return ChainEndpoint{}, false
}

func (r *RouteResolver) route(source int64, dest ChainEndpoint) models.ChainRoute {
	return models.ChainRoute{
		SourceChainID:       source,
		DestinationChainID:  dest.ChainID,
		DestinationContract: dest.Contract,
	}
}
