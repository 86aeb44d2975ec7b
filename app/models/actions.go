package models

import (
	"github.com/pkg/errors"
)

type Action string

const (
	ActionAuthorize Action = "authorize"
	ActionDeposit   Action = "deposit"
	ActionWithdraw  Action = "withdraw"
	ActionBalance   Action = "balance"
)

// Stage is a step of a single action: idle -> authorizing -> calling ->
// confirming (writes only) -> succeeded | failed.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageAuthorizing Stage = "authorizing"
	StageCalling     Stage = "calling"
	StageConfirming  Stage = "confirming"
	StageSucceeded   Stage = "succeeded"
	StageFailed      Stage = "failed"
)

type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindAuthorizationDenied ErrorKind = "authorization_denied"
	KindTransactionFailed   ErrorKind = "transaction_failed"
	KindQueryFailed         ErrorKind = "query_failed"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type Authorization struct {
	Account string `json:"account"`
}

type TxReceipt struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

type Balance struct {
	Raw   string `json:"raw"`   // base units
	Value string `json:"value"` // ether
}

// Outcome is what the presentation layer reports for one action.
type Outcome struct {
	Action  Action    `json:"action"`
	Status  Status    `json:"status"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message"`
	Value   string    `json:"value,omitempty"`
	TxHash  string    `json:"tx_hash,omitempty"`
}

func (o *Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

type InputUpdate struct {
	Value *string `json:"value"`
}

func (u *InputUpdate) Validate() error {
	if u.Value == nil {
		return errors.New("empty input value provided")
	}
	return nil
}
