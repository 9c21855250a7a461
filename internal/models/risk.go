package models

import (
	"encoding/json"
	"strconv"
)

// RiskLevel classifies how dangerous a captured command was judged to be.
type RiskLevel int

const (
	RiskLevelAccept       RiskLevel = 0
	RiskLevelWarning      RiskLevel = 4
	RiskLevelReject       RiskLevel = 5
	RiskLevelReviewReject RiskLevel = 6
	RiskLevelReviewAccept RiskLevel = 7
	RiskLevelReviewCancel RiskLevel = 8
)

var riskLevelLabels = map[RiskLevel]string{
	RiskLevelAccept:       "Accept",
	RiskLevelWarning:      "Warning",
	RiskLevelReject:       "Reject",
	RiskLevelReviewReject: "Review & Reject",
	RiskLevelReviewAccept: "Review & Accept",
	RiskLevelReviewCancel: "Review & Cancel",
}

func (r RiskLevel) IsValid() bool {
	_, ok := riskLevelLabels[r]
	return ok
}

func (r RiskLevel) Label() string {
	if l, ok := riskLevelLabels[r]; ok {
		return l
	}
	return strconv.Itoa(int(r))
}

// IsDangerous reports whether a command at this level should raise an alert.
func (r RiskLevel) IsDangerous() bool {
	return r == RiskLevelWarning || r == RiskLevelReject || r == RiskLevelReviewReject
}

type labeledChoice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(labeledChoice{Value: int(r), Label: r.Label()})
}
