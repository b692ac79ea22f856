package api

type ROICalcRequest struct {
	GPUModel     string  `json:"gpu_model"`
	HoursPerDay  float64 `json:"hours_per_day"`
	PowerCostKWh float64 `json:"power_cost_kwh"`
}

type ROICalcResponse struct {
	GPUModel               string  `json:"gpu_model"`
	HourlyRateUSD          float64 `json:"hourly_rate_usd"`
	PotentialMonthlyProfit float64 `json:"potential_monthly_profit"`
}
