package analytics

import "github.com/shopspring/decimal"

// VehicleStatisticsResponse is the read-model for one vehicle's running
// statistics. An unknown vehicle gets the same shape with zero values; the
// caller cannot distinguish "never seen" from "no statistics yet", which is
// deliberate.
type VehicleStatisticsResponse struct {
	VehicleID       string          `json:"vehicle_id"`
	VehicleName     string          `json:"vehicle_name"`
	TotalDistance   decimal.Decimal `json:"total_distance"`
	MonthlyDistance decimal.Decimal `json:"monthly_distance"`
	YearMonth       string          `json:"year_month"`
	TotalTrips      int64           `json:"total_trips"`
	MonthlyTrips    int64           `json:"monthly_trips"`
}

// BatchStatisticsRequest is the body of the batch statistics lookup.
type BatchStatisticsRequest struct {
	VehicleIDs []string `json:"vehicle_ids" binding:"required"`
}
