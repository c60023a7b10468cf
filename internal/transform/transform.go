// Package transform turns inbound event payloads into notification arguments.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nholik/delegate-sentinel/internal/chain"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/message"
)

// Func converts one occurrence into notification arguments. Nil args with a nil
// error suppress the notification.
type Func func(ctx context.Context, occurrence event.Occurrence) (message.Args, error)

// Layer holds the collaborators the per-event transforms resolve data from.
type Layer struct {
	wallets chain.WalletLookup
	host    chain.HostIdentifier
}

// New creates a transform layer.
func New(wallets chain.WalletLookup, host chain.HostIdentifier) (*Layer, error) {
	if wallets == nil {
		return nil, errors.New("wallet lookup is required")
	}
	if host == nil {
		return nil, errors.New("host identifier is required")
	}
	return &Layer{wallets: wallets, host: host}, nil
}

// For returns the transform of name. The synthetic active delegate event is served
// by the delegate diff engine and is not handled here.
func (l *Layer) For(name event.Name) (Func, bool) {
	switch name {
	case event.Vote:
		return l.vote, true
	case event.Unvote:
		return l.unvote, true
	case event.ForgerMissing:
		return l.forgerMissing, true
	case event.ForgerFailed:
		return l.forgerFailed, true
	case event.ForgerStarted:
		return l.forgerStarted, true
	case event.BlockForged:
		return l.blockForged, true
	case event.RoundCreated:
		return l.roundCreated, true
	case event.DelegateRegistered:
		return l.delegateRegistered, true
	case event.DelegateResigned:
		return l.delegateResigned, true
	default:
		return nil, false
	}
}

func (l *Layer) vote(ctx context.Context, occurrence event.Occurrence) (message.Args, error) {
	payload, err := event.DecodeVote(occurrence.Data)
	if err != nil {
		return nil, err
	}
	votes, unvotes := payload.Transaction.Votes()
	if len(votes) == 0 {
		return nil, nil
	}

	voter, err := l.wallet(ctx, payload.Transaction.SenderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("resolve voter: %w", err)
	}

	var change message.VoteChange
	if change.Vote, err = l.usernames(ctx, votes); err != nil {
		return nil, fmt.Errorf("resolve voted delegate: %w", err)
	}
	if change.Unvote, err = l.usernames(ctx, unvotes); err != nil {
		return nil, fmt.Errorf("resolve unvoted delegate: %w", err)
	}

	return message.Args{voter.Address, change, voter.Balance, payload.Transaction.ID}, nil
}

func (l *Layer) unvote(ctx context.Context, occurrence event.Occurrence) (message.Args, error) {
	payload, err := event.DecodeVote(occurrence.Data)
	if err != nil {
		return nil, err
	}
	_, unvotes := payload.Transaction.Votes()
	if len(unvotes) == 0 && payload.Delegate != "" {
		unvotes = []string{payload.Delegate}
	}
	if len(unvotes) == 0 {
		return nil, errors.New("unvote without a delegate")
	}

	voter, err := l.wallet(ctx, payload.Transaction.SenderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("resolve voter: %w", err)
	}
	username, err := l.usernames(ctx, unvotes)
	if err != nil {
		return nil, fmt.Errorf("resolve unvoted delegate: %w", err)
	}

	return message.Args{voter.Address, message.VoteChange{Unvote: username}, voter.Balance, payload.Transaction.ID}, nil
}

func (l *Layer) forgerMissing(ctx context.Context, occurrence event.Occurrence) (message.Args, error) {
	payload, err := event.DecodeWallet(occurrence.Data)
	if err != nil {
		return nil, err
	}
	username := payload.Delegate.Username
	if username == "" {
		if username, err = l.username(ctx, payload.Delegate.PublicKey); err != nil {
			return nil, fmt.Errorf("resolve missing delegate: %w", err)
		}
	}
	return message.Args{l.host.Host(), username}, nil
}

func (l *Layer) forgerFailed(_ context.Context, occurrence event.Occurrence) (message.Args, error) {
	detail, err := event.DecodeError(occurrence.Data)
	if err != nil {
		return nil, err
	}
	return message.Args{l.host.Host(), detail}, nil
}

func (l *Layer) forgerStarted(context.Context, event.Occurrence) (message.Args, error) {
	return message.Args{l.host.Host()}, nil
}

func (l *Layer) blockForged(_ context.Context, occurrence event.Occurrence) (message.Args, error) {
	block, err := event.DecodeBlock(occurrence.Data)
	if err != nil {
		return nil, err
	}
	return message.Args{l.host.Host(), block.ID}, nil
}

func (l *Layer) roundCreated(_ context.Context, occurrence event.Occurrence) (message.Args, error) {
	delegates, err := event.DecodeRound(occurrence.Data)
	if err != nil {
		return nil, err
	}
	return message.Args{delegates}, nil
}

func (l *Layer) delegateRegistered(ctx context.Context, occurrence event.Occurrence) (message.Args, error) {
	tx, err := event.DecodeTransaction(occurrence.Data)
	if err != nil {
		return nil, err
	}
	if tx.Asset.Delegate != nil && tx.Asset.Delegate.Username != "" {
		return message.Args{tx.Asset.Delegate.Username}, nil
	}
	username, err := l.username(ctx, tx.SenderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("resolve registered delegate: %w", err)
	}
	return message.Args{username}, nil
}

func (l *Layer) delegateResigned(ctx context.Context, occurrence event.Occurrence) (message.Args, error) {
	tx, err := event.DecodeTransaction(occurrence.Data)
	if err != nil {
		return nil, err
	}
	if tx.SenderPublicKey == "" {
		return nil, nil
	}
	username, err := l.username(ctx, tx.SenderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("resolve resigned delegate: %w", err)
	}
	return message.Args{username}, nil
}

func (l *Layer) wallet(ctx context.Context, publicKey string) (chain.Wallet, error) {
	if publicKey == "" {
		return chain.Wallet{}, errors.New("missing public key")
	}
	return l.wallets.WalletByPublicKey(ctx, publicKey)
}

// usernames resolves every key and joins the names in directive order.
func (l *Layer) usernames(ctx context.Context, publicKeys []string) (string, error) {
	names := make([]string, 0, len(publicKeys))
	for _, key := range publicKeys {
		name, err := l.username(ctx, key)
		if err != nil {
			return "", err
		}
		names = append(names, name)
	}
	return strings.Join(names, ", "), nil
}

func (l *Layer) username(ctx context.Context, publicKey string) (string, error) {
	wallet, err := l.wallet(ctx, publicKey)
	if err != nil {
		return "", err
	}
	if wallet.Username == "" {
		return "", fmt.Errorf("wallet %s is not a delegate", wallet.Address)
	}
	return wallet.Username, nil
}
