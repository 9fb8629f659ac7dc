package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DateTime wraps a time.Time struct, allowing for improved dateTime JSON compatibility.
type DateTime struct {
	time.Time
}

// NewDateTime Creates a new DateTime struct, embedding a time.Time struct.
func NewDateTime(time time.Time) *DateTime {
	return &DateTime{Time: time}
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dt.UTC().Format(time.RFC3339))
}

func (dt *DateTime) UnmarshalJSON(input []byte) error {
	text := strings.Trim(string(input), "\"")
	if text == "null" || text == "" {
		dt.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return fmt.Errorf("invalid date time %q: %w", text, err)
	}
	dt.Time = t
	return nil
}

func (dt DateTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(dt.UTC())
}

func (dt *DateTime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		dt.Time = time.Time{}
		return nil
	}
	value, ok := bson.RawValue{Type: t, Value: data}.TimeOK()
	if !ok {
		return fmt.Errorf("cannot decode bson type %s into date time", t)
	}
	dt.Time = value.UTC()
	return nil
}

// Or returns the wrapped time or the fallback when the value is absent.
func (dt *DateTime) Or(fallback time.Time) time.Time {
	if dt == nil || dt.IsZero() {
		return fallback
	}
	return dt.Time
}
