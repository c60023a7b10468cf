package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transaction is the subset of a node transaction the notifications need.
type Transaction struct {
	ID              string `json:"id"`
	SenderPublicKey string `json:"senderPublicKey"`
	Asset           Asset  `json:"asset"`
}

// Asset carries the type-specific transaction data.
type Asset struct {
	Votes    []string       `json:"votes,omitempty"`
	Delegate *DelegateAsset `json:"delegate,omitempty"`
}

// DelegateAsset is the registration data of a delegate transaction.
type DelegateAsset struct {
	Username string `json:"username"`
}

// VotePayload is emitted for wallet.vote and wallet.unvote.
type VotePayload struct {
	Delegate    string      `json:"delegate"`
	Transaction Transaction `json:"transaction"`
}

// Delegate identifies a delegate wallet.
type Delegate struct {
	PublicKey string `json:"publicKey"`
	Username  string `json:"username"`
}

// WalletPayload is emitted for forger.missing.
type WalletPayload struct {
	Delegate Delegate `json:"delegate"`
}

// Block is emitted for block.forged.
type Block struct {
	ID                 string `json:"id"`
	Height             uint64 `json:"height"`
	GeneratorPublicKey string `json:"generatorPublicKey"`
}

// Votes splits the vote directives into voted and unvoted delegate keys.
func (t Transaction) Votes() (votes []string, unvotes []string) {
	for _, directive := range t.Asset.Votes {
		directive = strings.TrimSpace(directive)
		if len(directive) < 2 {
			continue
		}
		switch directive[0] {
		case '+':
			votes = append(votes, directive[1:])
		case '-':
			unvotes = append(unvotes, directive[1:])
		}
	}
	return votes, unvotes
}

// DecodeVote decodes a vote or unvote payload.
func DecodeVote(data json.RawMessage) (VotePayload, error) {
	var payload VotePayload
	if err := decode(data, &payload); err != nil {
		return VotePayload{}, fmt.Errorf("decode vote payload: %w", err)
	}
	return payload, nil
}

// DecodeTransaction decodes a bare transaction payload.
func DecodeTransaction(data json.RawMessage) (Transaction, error) {
	var tx Transaction
	if err := decode(data, &tx); err != nil {
		return Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}

// DecodeWallet decodes a forger.missing payload.
func DecodeWallet(data json.RawMessage) (WalletPayload, error) {
	var payload WalletPayload
	if err := decode(data, &payload); err != nil {
		return WalletPayload{}, fmt.Errorf("decode wallet payload: %w", err)
	}
	return payload, nil
}

// DecodeBlock decodes a block.forged payload.
func DecodeBlock(data json.RawMessage) (Block, error) {
	var block Block
	if err := decode(data, &block); err != nil {
		return Block{}, fmt.Errorf("decode block: %w", err)
	}
	return block, nil
}

// DecodeError extracts the detail of a forger.failed payload, which is either a
// bare JSON string or an object with an error or message field.
func DecodeError(data json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, nil
	}
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := decode(data, &obj); err != nil {
		return "", fmt.Errorf("decode forger error: %w", err)
	}
	if obj.Error != "" {
		return obj.Error, nil
	}
	return obj.Message, nil
}

// DecodeRound extracts the delegate usernames of a round.created payload. Entries may
// be delegate objects or plain usernames.
func DecodeRound(data json.RawMessage) ([]string, error) {
	var raw []json.RawMessage
	if err := decode(data, &raw); err != nil {
		return nil, fmt.Errorf("decode round: %w", err)
	}
	usernames := make([]string, 0, len(raw))
	for i, entry := range raw {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			usernames = append(usernames, name)
			continue
		}
		var delegate Delegate
		if err := json.Unmarshal(entry, &delegate); err != nil {
			return nil, fmt.Errorf("decode round delegate %d: %w", i, err)
		}
		usernames = append(usernames, delegate.Username)
	}
	return usernames, nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(data, v)
}
