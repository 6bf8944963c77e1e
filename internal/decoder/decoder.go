// Package decoder turns raw contract logs into decoded events.
package decoder

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"

	"contractwatch/internal/model"
	"contractwatch/internal/schema"
)

// Decoder matches raw logs against the watched entries of a registry.
type Decoder struct {
	registry *schema.Registry
	watch    *schema.WatchSet
}

// New builds a Decoder for the watched events of registry.
func New(registry *schema.Registry, watch *schema.WatchSet) *Decoder {
	return &Decoder{registry: registry, watch: watch}
}

// Decode returns a *model.DecodedEvent for the first watched candidate, in
// registry order, whose schema decodes the log. Anything else yields a
// *model.UndecodedEvent; Decode never fails.
func (d *Decoder) Decode(log types.Log) model.Event {
	if len(log.Topics) == 0 {
		return &model.UndecodedEvent{Raw: log, Reason: "log has no topics"}
	}

	var lastErr error
	for _, candidate := range d.registry.ByTopic(log.Topics[0]) {
		if !d.watch.Contains(candidate.Name) {
			continue
		}
		args, err := decodeArgs(candidate, log)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", candidate.Signature, err)
			continue
		}
		return &model.DecodedEvent{
			Name:      candidate.Name,
			Signature: candidate.Signature,
			Args:      args,
			Raw:       log,
		}
	}

	if lastErr != nil {
		return &model.UndecodedEvent{Raw: log, Reason: lastErr.Error()}
	}
	return &model.UndecodedEvent{Raw: log, Reason: "no watched event matches topic " + log.Topics[0].Hex()}
}

func decodeArgs(sig *schema.EventSignature, log types.Log) ([]model.Arg, error) {
	inputs := sig.Event.Inputs

	indexed := make(abi.Arguments, 0, len(inputs))
	for i, input := range inputs {
		if !input.Indexed {
			continue
		}
		input.Name = argName(input.Name, i)
		indexed = append(indexed, input)
	}

	if got := len(log.Topics) - 1; got != sig.IndexedCount() {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", sig.IndexedCount(), got)
	}

	topicValues := make(map[string]interface{}, len(indexed))
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(topicValues, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("parse topics: %w", err)
		}
	}

	dataValues, err := inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack data: %w", err)
	}

	args := make([]model.Arg, 0, len(inputs))
	next := 0
	for i, input := range inputs {
		arg := model.Arg{
			Name:    argName(input.Name, i),
			Type:    input.Type.String(),
			Indexed: input.Indexed,
		}
		if input.Indexed {
			value, ok := topicValues[arg.Name]
			if !ok {
				return nil, fmt.Errorf("missing indexed value %s", arg.Name)
			}
			arg.Value = value
		} else {
			if next >= len(dataValues) {
				return nil, fmt.Errorf("expected %d data values, got %d", len(inputs.NonIndexed()), len(dataValues))
			}
			arg.Value = dataValues[next]
			next++
		}
		args = append(args, arg)
	}

	if len(args) != len(sig.Fields) {
		return nil, fmt.Errorf("decoded %d arguments, schema has %d", len(args), len(sig.Fields))
	}
	return args, nil
}

func argName(name string, position int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("arg%d", position)
}
