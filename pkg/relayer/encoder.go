package relayer

import (
	"fmt"

	"github.com/speedrun-hq/burn-relayer/pkg/contracts"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
)

// BuildIntent encodes the destination mint for a burn event
func BuildIntent(route models.ChainRoute, event models.BurnEvent) (models.RelayIntent, error) {
	data, err := contracts.EncodeMint(event.From, event.Amount)
	if err != nil {
		return models.RelayIntent{}, fmt.Errorf("failed to encode mint for %s: %w", event.Key(), err)
	}

	return models.RelayIntent{
		DestinationChainID:  route.DestinationChainID,
		DestinationContract: route.DestinationContract,
		CallData:            data,
		EventKey:            event.Key(),
	}, nil
}
