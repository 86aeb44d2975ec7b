package models

const InitialBalance = "0"

// View is the per-client form state: the two input fields and the balance
// shown to the user. It lives in memory only.
type View struct {
	ClientID        string `json:"client_id"`
	DepositInput    string `json:"deposit_input"`
	WithdrawalInput string `json:"withdrawal_input"`
	Balance         string `json:"balance"`
}

func NewView(clientID string) *View {
	return &View{ClientID: clientID, Balance: InitialBalance}
}

// BalanceText renders a balance the way it is displayed, e.g. "1.5 ETH".
func BalanceText(balance string) string {
	if balance == "" {
		balance = InitialBalance
	}
	return balance + " ETH"
}

type Session struct {
	View        *View  `json:"view"`
	AccessToken string `json:"access_token,omitempty"`
}
