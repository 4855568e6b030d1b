package types

// PkpInfo identifies the delegated signing identity. Its private key is held
// by an external signer and never enters this module.
type PkpInfo struct {
	EthAddress string `json:"ethAddress" yaml:"ethAddress" validate:"required,eth_addr"`
	PublicKey  string `json:"publicKey" yaml:"publicKey" validate:"required,pubkey"`
	TokenID    string `json:"tokenId,omitempty" yaml:"tokenId,omitempty"`
}

// DelegationContext is supplied by the delegation runtime for every phase
// call. Callers must pass the same delegator to precheck and execute.
type DelegationContext struct {
	DelegatorPkpInfo PkpInfo `json:"delegatorPkpInfo" yaml:"delegatorPkpInfo"`
}
