package models

import (
	"net/http"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const MessageProviderMissing = "Please install a wallet provider!"

var (
	successMessages = map[Action]string{
		ActionAuthorize: "Wallet Connected!",
		ActionDeposit:   "Deposit Successful!",
		ActionWithdraw:  "Withdrawal Successful!",
		ActionBalance:   "Balance Fetched Successfully!",
	}
	failureMessages = map[Action]string{
		ActionAuthorize: "Wallet Authorization Failed. Please try again.",
		ActionDeposit:   "Deposit Failed. Please try again.",
		ActionWithdraw:  "Withdrawal Failed. Please try again.",
		ActionBalance:   "Failed to Fetch Balance. Please try again.",
	}
)

func (a Action) SuccessMessage() string {
	return successMessages[a]
}

func (a Action) FailureMessage() string {
	return failureMessages[a]
}

type NewSubscription struct {
	ClientID       string `json:"client_id"`
	ResponseWriter http.ResponseWriter
	Request        *http.Request
}

type Notification struct {
	ClientID string      `json:"client_id"`
	Message  interface{} `json:"message"`
}

// Toast is a transient message dismissed by the client after AutoClose.
type Toast struct {
	Level     Level  `json:"level"`
	Action    Action `json:"action"`
	Text      string `json:"text"`
	AutoClose int64  `json:"auto_close_ms"`
}

func NewToast(level Level, action Action, text string, autoClose time.Duration) *Toast {
	return &Toast{
		Level:     level,
		Action:    action,
		Text:      text,
		AutoClose: autoClose.Milliseconds(),
	}
}

// OutcomeEvent is published to the event stream after every action.
type OutcomeEvent struct {
	ClientID    string    `json:"client_id,omitempty"`
	Action      Action    `json:"action"`
	Status      Status    `json:"status"`
	Kind        ErrorKind `json:"kind,omitempty"`
	Stage       Stage     `json:"stage"`
	Value       string    `json:"value,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	PublishedAt time.Time `json:"published_at"`
}
