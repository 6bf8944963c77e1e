package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type abiEntry struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Anonymous bool   `json:"anonymous"`
}

type artifact struct {
	ABI json.RawMessage `json:"abi"`
}

// Load reads a contract ABI from disk. Both a bare ABI array and a build
// artifact with an "abi" field are accepted.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abi: %w", err)
	}
	registry, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", path, err)
	}
	return registry, nil
}

// Parse builds a registry from ABI JSON. Event order follows the document.
// Anonymous events carry no signature topic and are left out.
func Parse(data []byte) (*Registry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty abi")
	}

	if data[0] == '{' {
		var art artifact
		if err := json.Unmarshal(data, &art); err != nil {
			return nil, fmt.Errorf("decode artifact: %w", err)
		}
		if len(art.ABI) == 0 {
			return nil, fmt.Errorf("artifact has no abi field")
		}
		data = art.ABI
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode abi: %w", err)
	}

	entries := make([]*EventSignature, 0, len(raw))
	for i, item := range raw {
		var head abiEntry
		if err := json.Unmarshal(item, &head); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if head.Type != "event" || head.Anonymous {
			continue
		}

		event, err := parseEvent(item)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", head.Name, err)
		}
		entries = append(entries, NewEventSignature(event))
	}

	if len(entries) == 0 {
		return nil, ErrNoEvents
	}
	return NewRegistry(entries...), nil
}

func parseEvent(item json.RawMessage) (abi.Event, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(item)
	buf.WriteByte(']')

	parsed, err := abi.JSON(&buf)
	if err != nil {
		return abi.Event{}, err
	}
	for _, event := range parsed.Events {
		for _, input := range event.Inputs {
			if err := checkType(input.Type); err != nil {
				return abi.Event{}, fmt.Errorf("input %q: %w", input.Name, err)
			}
		}
		return event, nil
	}
	return abi.Event{}, fmt.Errorf("no event parsed")
}

// checkType rejects widths abi.NewType lets through, such as uint7 or bytes33.
func checkType(t abi.Type) error {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("invalid integer type %s", t.String())
		}
	case abi.FixedBytesTy:
		if t.Size < 1 || t.Size > 32 {
			return fmt.Errorf("invalid fixed bytes type %s", t.String())
		}
	case abi.SliceTy, abi.ArrayTy:
		if t.Elem != nil {
			return checkType(*t.Elem)
		}
	case abi.TupleTy:
		for _, elem := range t.TupleElems {
			if err := checkType(*elem); err != nil {
				return err
			}
		}
	}
	return nil
}
