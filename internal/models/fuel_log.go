package models

import (
	"encoding/json"
	"strings"
)

// FuelLog is a single refuelling entry on an asset.
type FuelLog struct {
	Date    string  `bson:"date" json:"date"`
	Gallons float64 `bson:"gallons" json:"gallons"`
}

// EncodeFuelLogs serializes fuel logs into the text form kept by relational stores.
func EncodeFuelLogs(logs []FuelLog) (string, error) {
	if logs == nil {
		logs = []FuelLog{}
	}
	data, err := json.Marshal(logs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeFuelLogs parses the stored text form. An empty blob yields an empty
// list; a malformed one yields an empty list and the parse error.
func DecodeFuelLogs(blob string) ([]FuelLog, error) {
	if strings.TrimSpace(blob) == "" {
		return []FuelLog{}, nil
	}
	var logs []FuelLog
	if err := json.Unmarshal([]byte(blob), &logs); err != nil {
		return []FuelLog{}, err
	}
	if logs == nil {
		logs = []FuelLog{}
	}
	return logs, nil
}
