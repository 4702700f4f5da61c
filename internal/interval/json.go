package interval

import (
	"encoding/json"

	"github.com/nikmy/roombook/pkg/errors"
)

type wire struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func (i Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Start: i.start, End: i.end})
}

// UnmarshalJSON validates the decoded bounds, so an Interval read from
// the outside is always valid.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var w wire
	err := json.Unmarshal(data, &w)
	if err != nil {
		return errors.WrapFail(err, "decode interval")
	}

	parsed, err := New(w.Start, w.End)
	if err != nil {
		return err
	}

	*i = parsed
	return nil
}
