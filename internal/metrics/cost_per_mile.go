package metrics

import (
	"encoding/json"
	"strconv"
)

// NoData is how missing figures are rendered to clients.
const NoData = "N/A"

// CostPerMile is a fuel cost figure that may be unavailable.
type CostPerMile struct {
	Value float64
	OK    bool
}

// String renders the value with two decimals, or NoData.
func (c CostPerMile) String() string {
	if !c.OK {
		return NoData
	}
	return strconv.FormatFloat(c.Value, 'f', 2, 64)
}

// MarshalJSON encodes a number, or the NoData string when unavailable.
func (c CostPerMile) MarshalJSON() ([]byte, error) {
	if !c.OK {
		return json.Marshal(NoData)
	}
	return json.Marshal(c.Value)
}
