package models

import (
	"encoding/json"
	"fmt"
)

type LotType string

const (
	LotTypeCommon      LotType = "Common"
	LotTypeIntradayOdd LotType = "IntradayOdd"
	LotTypeOdd         LotType = "Odd"
	LotTypeFixing      LotType = "Fixing"
)

func (l LotType) Validate() error {
	switch l {
	case LotTypeCommon, LotTypeIntradayOdd, LotTypeOdd, LotTypeFixing:
		return nil
	}

	return fmt.Errorf("unknown lot type: %q", l)
}

// UnmarshalJSON accepts the symbolic encoding and the legacy boolean one,
// where true meant an intraday odd lot.
func (l *LotType) UnmarshalJSON(data []byte) error {
	var legacy bool
	if err := json.Unmarshal(data, &legacy); err == nil {
		if legacy {
			*l = LotTypeIntradayOdd
		} else {
			*l = LotTypeCommon
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("lot type must be a string or a bool: %w", err)
	}

	if s == "" {
		*l = LotTypeCommon
		return nil
	}

	lot := LotType(s)
	if err := lot.Validate(); err != nil {
		return err
	}

	*l = lot
	return nil
}
