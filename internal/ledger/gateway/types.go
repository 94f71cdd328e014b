package gateway

// deriveAddressRequest asks the gateway to derive the account address for
// a public key on a network.
type deriveAddressRequest struct {
	PublicKeyHex string `json:"public_key_hex"`
	Network      string `json:"network"`
}

type deriveAddressResponse struct {
	Address string `json:"address"`
}

// balanceRequest queries the native token balance of an account.
type balanceRequest struct {
	Address string `json:"address"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type epochResponse struct {
	Epoch uint64 `json:"epoch"`
}

// submitRequest carries a notarized transaction payload.
type submitRequest struct {
	NotarizedTransactionHex string `json:"notarized_transaction_hex"`
}

type submitResponse struct {
	Duplicate  bool   `json:"duplicate"`
	IntentHash string `json:"intent_hash,omitempty"`
}

// errorResponse is the gateway's error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
