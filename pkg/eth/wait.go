package eth

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"vaultgate/pkg/log"
)

const DefaultPollInterval = 2 * time.Second

// ReceiptReader is the part of a node connection needed to follow a transaction.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// WaitConfirmed polls for the receipt of the transaction until it is included
// and buried under the requested number of blocks. Lookup errors are treated as
// "not yet" and polling goes on; there is no timeout, only ctx ends the wait.
// The returned receipt may carry a failed status, it is up to the caller to check.
func WaitConfirmed(
	ctx context.Context,
	reader ReceiptReader,
	txHash common.Hash,
	confirmations uint64,
	interval time.Duration,
) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := log.FromContext(ctx)
	for {
		rcpt, err := reader.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && rcpt != nil:
			if isConfirmed(ctx, reader, rcpt, confirmations) {
				return rcpt, nil
			}
		case err != nil && !errors.Is(err, ethereum.NotFound):
			logger.Debugw("failed to get transaction receipt", "tx", txHash.Hex(), "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "stopped waiting for transaction %s", txHash.Hex())
		case <-ticker.C:
		}
	}
}

func isConfirmed(ctx context.Context, reader ReceiptReader, rcpt *types.Receipt, confirmations uint64) bool {
	if confirmations <= 1 || rcpt.BlockNumber == nil {
		return true
	}

	head, err := reader.HeaderByNumber(ctx, nil)
	if err != nil || head == nil {
		log.FromContext(ctx).Debugw("failed to get the latest header", "error", err)
		return false
	}

	target := rcpt.BlockNumber.Uint64() + confirmations - 1
	return head.Number.Uint64() >= target
}
