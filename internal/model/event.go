package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

const (
	KindDecoded   = "decoded"
	KindUndecoded = "undecoded"
)

// Event is the result of decoding one raw log: either a *DecodedEvent or an
// *UndecodedEvent. The unexported method keeps the set of variants closed.
type Event interface {
	Kind() string
	RawLog() types.Log
	event()
}

// Arg is one decoded event argument, in schema order.
type Arg struct {
	Name    string
	Type    string
	Indexed bool
	Value   interface{}
}

// DecodedEvent is a raw log matched and decoded against a watched event signature.
type DecodedEvent struct {
	Name      string
	Signature string
	Args      []Arg
	Raw       types.Log
}

func (e *DecodedEvent) Kind() string      { return KindDecoded }
func (e *DecodedEvent) RawLog() types.Log { return e.Raw }
func (e *DecodedEvent) event()            {}

// Arg returns the argument with the given name.
func (e *DecodedEvent) Arg(name string) (Arg, bool) {
	for _, arg := range e.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return Arg{}, false
}

// UndecodedEvent wraps a raw log no watched signature could decode.
type UndecodedEvent struct {
	Raw    types.Log
	Reason string
}

func (e *UndecodedEvent) Kind() string      { return KindUndecoded }
func (e *UndecodedEvent) RawLog() types.Log { return e.Raw }
func (e *UndecodedEvent) event()            {}

// Key identifies a log on chain. Re-deliveries of the same log share a key.
func Key(log types.Log) string {
	return fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
}
