package gateway

// VaultABI is the interface of the vault contract used when the config does
// not supply one.
const VaultABI = `[
	{
		"inputs": [{"name": "amount", "type": "uint256"}],
		"name": "deposit",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "amount", "type": "uint256"}],
		"name": "withdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "balance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`
