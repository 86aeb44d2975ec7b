package eth

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Dial connects to a node and returns both the typed client and the raw rpc client.
func Dial(ctx context.Context, rawurl string) (*ethclient.Client, *rpc.Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to dial %s", rawurl)
	}
	return ethclient.NewClient(rpcClient), rpcClient, nil
}
