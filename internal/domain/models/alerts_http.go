package models

// Requests for alert HTTP endpoints. Defined in domain for consistency and reuse.

type CreateAlertRequest struct {
	Symbol    string  `json:"symbol" validate:"required,min=1,max=12"`
	Type      string  `json:"alert_type" validate:"required,oneof=price_up price_down prediction_change volume_spike dividend"`
	Condition string  `json:"condition_type" default:"absolute" validate:"oneof=absolute percentage"`
	Threshold float64 `json:"threshold_value" validate:"required"`
	Frequency string  `json:"frequency" default:"realtime" validate:"oneof=realtime daily weekly"`
}

type UpdateAlertRequest struct {
	Condition string   `json:"condition_type" validate:"omitempty,oneof=absolute percentage"`
	Threshold *float64 `json:"threshold_value" validate:"omitempty"`
	Frequency string   `json:"frequency" validate:"omitempty,oneof=realtime daily weekly"`
	IsActive  *bool    `json:"is_active"`
}

type BulkCreateAlertsRequest struct {
	Alerts []CreateAlertRequest `json:"alerts" validate:"required,min=1,max=50,dive"`
}

type ListTriggersRequest struct {
	AlertID string `query:"alert_id" json:"alert_id"`
	Limit   int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
