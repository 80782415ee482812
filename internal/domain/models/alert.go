package models

import "time"

type AlertType string

const (
	AlertPriceUp          AlertType = "price_up"
	AlertPriceDown        AlertType = "price_down"
	AlertPredictionChange AlertType = "prediction_change"
	AlertVolumeSpike      AlertType = "volume_spike"
	AlertDividend         AlertType = "dividend"
)

type ConditionType string

const (
	ConditionAbsolute   ConditionType = "absolute"
	ConditionPercentage ConditionType = "percentage"
)

type Frequency string

const (
	FreqRealtime Frequency = "realtime"
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
)

// Alert is a user-owned rule. Mutated only through create/update/delete/toggle;
// the evaluator touches LastTriggeredAt and nothing else.
type Alert struct {
	ID              string
	Symbol          string
	Type            AlertType
	Condition       ConditionType
	Threshold       float64
	Frequency       Frequency
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastTriggeredAt *time.Time
}

// AlertTrigger is one firing of an alert. Append-only.
type AlertTrigger struct {
	ID          string
	AlertID     string
	Symbol      string
	Type        AlertType
	Value       float64 // observed value that satisfied the condition
	Threshold   float64
	Message     string
	TriggeredAt time.Time
	IsRead      bool
	DismissedAt *time.Time
}
