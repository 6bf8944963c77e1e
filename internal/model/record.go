package model

import (
	"time"
)

// Record is the JSON shape of one observed event, decoded or not.
type Record struct {
	Kind       string      `json:"kind"`
	EventName  string      `json:"event_name,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	Args       []RecordArg `json:"args,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Log        LogRecord   `json:"log"`
	ObservedAt string      `json:"observed_at"`
}

// RecordArg is a decoded argument with its value already formatted for JSON.
type RecordArg struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Indexed bool        `json:"indexed"`
	Value   interface{} `json:"value"`
}

// NewRecord renders an Event into a Record.
func NewRecord(ev Event, observedAt time.Time) Record {
	record := Record{
		Kind:       ev.Kind(),
		Log:        NewLogRecord(ev.RawLog()),
		ObservedAt: observedAt.UTC().Format(time.RFC3339Nano),
	}

	switch typed := ev.(type) {
	case *DecodedEvent:
		record.EventName = typed.Name
		record.Signature = typed.Signature
		record.Args = make([]RecordArg, 0, len(typed.Args))
		for _, arg := range typed.Args {
			record.Args = append(record.Args, RecordArg{
				Name:    arg.Name,
				Type:    arg.Type,
				Indexed: arg.Indexed,
				Value:   FormatValue(arg.Value),
			})
		}
	case *UndecodedEvent:
		record.Reason = typed.Reason
	}

	return record
}
