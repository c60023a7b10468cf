package message

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nholik/delegate-sentinel/internal/event"
)

const baseUnitsPerToken = 1e8

// Template renders a notification from its arguments. The explorer transaction URL
// is always the last argument.
type Template func(args Args) (string, error)

// Set holds one template per event name.
type Set map[event.Name]Template

// arity is the argument count of each event, excluding the explorer URL.
var arity = map[event.Name]int{
	event.Vote:                   4,
	event.Unvote:                 4,
	event.ForgerMissing:          2,
	event.ForgerFailed:           2,
	event.ForgerStarted:          1,
	event.BlockForged:            2,
	event.RoundCreated:           1,
	event.DelegateRegistered:     1,
	event.DelegateResigned:       1,
	event.ActiveDelegatesChanged: 2,
}

func buildSet(s style, symbol string) Set {
	r := renderer{style: s, symbol: symbol}
	return Set{
		event.Vote:                   r.vote,
		event.Unvote:                 r.unvote,
		event.ForgerMissing:          r.forgerMissing,
		event.ForgerFailed:           r.forgerFailed,
		event.ForgerStarted:          r.forgerStarted,
		event.BlockForged:            r.blockForged,
		event.RoundCreated:           r.roundCreated,
		event.DelegateRegistered:     r.delegateRegistered,
		event.DelegateResigned:       r.delegateResigned,
		event.ActiveDelegatesChanged: r.activeDelegatesChanged,
	}
}

type renderer struct {
	style  style
	symbol string
}

// voteArgs reads [voter, VoteChange, balance, txID, explorer].
func (r renderer) voteArgs(args Args) (voter string, change VoteChange, balance string, link string, err error) {
	if voter, err = args.String(0); err != nil {
		return
	}
	if change, err = args.VoteChange(1); err != nil {
		return
	}
	var amount int64
	if amount, err = args.Int64(2); err != nil {
		return
	}
	var txID, explorer string
	if txID, err = args.String(3); err != nil {
		return
	}
	if explorer, err = args.String(4); err != nil {
		return
	}
	balance = r.balance(amount)
	link = r.txLink(explorer, txID)
	return
}

func (r renderer) vote(args Args) (string, error) {
	voter, change, balance, link, err := r.voteArgs(args)
	if err != nil {
		return "", err
	}
	s := r.style

	var text string
	switch {
	case change.Vote != "" && change.Unvote != "":
		text = s.prefix("twisted_rightwards_arrows", "🔀", fmt.Sprintf("%s switched vote from %s to %s with %s",
			s.code(voter), s.bold(s.escape(change.Unvote)), s.bold(s.escape(change.Vote)), balance))
	case change.Vote != "":
		text = s.prefix("white_check_mark", "✅", fmt.Sprintf("%s voted for %s with %s",
			s.code(voter), s.bold(s.escape(change.Vote)), balance))
	default:
		return "", fmt.Errorf("vote notification without a voted delegate")
	}
	return joinLink(text, link), nil
}

func (r renderer) unvote(args Args) (string, error) {
	voter, change, balance, link, err := r.voteArgs(args)
	if err != nil {
		return "", err
	}
	if change.Unvote == "" {
		return "", fmt.Errorf("unvote notification without an unvoted delegate")
	}
	s := r.style
	text := s.prefix("x", "❌", fmt.Sprintf("%s unvoted %s with %s",
		s.code(voter), s.bold(s.escape(change.Unvote)), balance))
	return joinLink(text, link), nil
}

func (r renderer) forgerMissing(args Args) (string, error) {
	host, err := args.String(0)
	if err != nil {
		return "", err
	}
	username, err := args.String(1)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("warning", "⚠️", fmt.Sprintf("Delegate %s missed its block (reported by %s)",
		s.bold(s.escape(username)), s.code(s.escape(host)))), nil
}

func (r renderer) forgerFailed(args Args) (string, error) {
	host, err := args.String(0)
	if err != nil {
		return "", err
	}
	detail, err := args.String(1)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("rotating_light", "🚨", fmt.Sprintf("Forger on %s failed: %s",
		s.code(s.escape(host)), s.italic(s.escape(detail)))), nil
}

func (r renderer) forgerStarted(args Args) (string, error) {
	host, err := args.String(0)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("rocket", "🚀", fmt.Sprintf("Forger started on %s", s.code(s.escape(host)))), nil
}

func (r renderer) blockForged(args Args) (string, error) {
	host, err := args.String(0)
	if err != nil {
		return "", err
	}
	blockID, err := args.String(1)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("hammer_and_pick", "⚒️", fmt.Sprintf("%s forged block %s",
		s.bold(s.escape(host)), s.code(blockID))), nil
}

func (r renderer) roundCreated(args Args) (string, error) {
	delegates, err := args.Strings(0)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("arrows_counterclockwise", "🔄", fmt.Sprintf("New round created with %s active delegates: %s",
		s.bold(fmt.Sprint(len(delegates))), r.list(delegates))), nil
}

func (r renderer) delegateRegistered(args Args) (string, error) {
	username, err := args.String(0)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("new", "🆕", fmt.Sprintf("Delegate %s registered", s.bold(s.escape(username)))), nil
}

func (r renderer) delegateResigned(args Args) (string, error) {
	username, err := args.String(0)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("wave", "👋", fmt.Sprintf("Delegate %s resigned", s.bold(s.escape(username)))), nil
}

func (r renderer) activeDelegatesChanged(args Args) (string, error) {
	added, err := args.Strings(0)
	if err != nil {
		return "", err
	}
	removed, err := args.Strings(1)
	if err != nil {
		return "", err
	}
	s := r.style
	return s.prefix("busts_in_silhouette", "👥", fmt.Sprintf("Active delegates changed\n%s %s\n%s %s",
		s.bold("In:"), r.list(added), s.bold("Out:"), r.list(removed))), nil
}

func (r renderer) list(names []string) string {
	if len(names) == 0 {
		return r.style.italic("none")
	}
	escaped := make([]string, len(names))
	for i, name := range names {
		escaped[i] = r.style.escape(name)
	}
	return strings.Join(escaped, ", ")
}

func (r renderer) balance(amount int64) string {
	return humanize.CommafWithDigits(float64(amount)/baseUnitsPerToken, 2) + " " + r.symbol
}

func (r renderer) txLink(explorer, txID string) string {
	if explorer == "" || txID == "" {
		return ""
	}
	return r.style.link(explorer+txID, "View transaction")
}

func joinLink(text, link string) string {
	if link == "" {
		return text
	}
	return text + " " + link
}
