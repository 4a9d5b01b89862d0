package backend

// Record is one decoded JSON object with numbers kept as json.Number.
type Record = map[string]any

// Pagination is the canonical pagination block of report endpoints.
type Pagination struct {
	CurrentPage    int `json:"currentPage"`
	TotalPages     int `json:"totalPages"`
	TotalRecords   int `json:"totalRecords"`
	RecordsPerPage int `json:"recordsPerPage"`
}

// ReportPage is the canonical `{data, pagination}` report response.
type ReportPage struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// LoginRequest is the admin credential body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// PeriodStats holds daily or monthly counters.
type PeriodStats struct {
	TotalRequests     int64 `json:"totalRequests"`
	Accepted          int64 `json:"accepted"`
	Cancelled         int64 `json:"cancelled"`
	Delivered         int64 `json:"delivered"`
	TotalConsignments int64 `json:"totalConsignments"`
	TotalTravel       int64 `json:"totalTravel"`
}

// DashboardStats is the aggregate counters payload.
type DashboardStats struct {
	TotalTravel       int64       `json:"totalTravel"`
	TotalRequests     int64       `json:"totalRequests"`
	TotalAccepted     int64       `json:"totalAccepted"`
	TotalCancelled    int64       `json:"totalCancelled"`
	TotalDelivered    int64       `json:"totalDelivered"`
	TotalConsignments int64       `json:"totalConsignments"`
	Daily             PeriodStats `json:"daily"`
	Monthly           PeriodStats `json:"monthly"`
}

// TotalUsers is the `{total}` payload.
type TotalUsers struct {
	Total int64 `json:"total"`
}

// TotalEarnings is the `{totalEarnings}` payload.
type TotalEarnings struct {
	TotalEarnings float64 `json:"totalEarnings"`
}

// TransactionPage is the transaction history response.
type TransactionPage struct {
	Data  []Record `json:"data"`
	Total int      `json:"total"`
}

// AdminList is the admin listing response.
type AdminList struct {
	Admins []Record `json:"admins"`
}

// TravelSummaryPage is the logistics listing response.
type TravelSummaryPage struct {
	Data       []Record `json:"data"`
	Pagination struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

// DriverPage is the driver listing response.
type DriverPage struct {
	Data       []Record `json:"data"`
	TotalCount int      `json:"totalCount"`
}

// ConsignmentSummary is one consignment attached to a trip.
type ConsignmentSummary struct {
	ConsignmentID string `json:"consignmentId"`
	Status        string `json:"status"`
	Weight        any    `json:"weight"`
}

// Travel is one trip in a driver's history.
type Travel struct {
	ID                 string               `json:"_id"`
	TravelID           string               `json:"travelId"`
	Status             string               `json:"status"`
	Pickup             string               `json:"pickup"`
	Drop               string               `json:"drop"`
	TravelMode         string               `json:"travelMode"`
	TravelModeNumber   string               `json:"travelmode_number"`
	ExpectedStartTime  string               `json:"expectedStartTime"`
	ExpectedEndTime    string               `json:"expectedendtime"`
	ConsignmentCount   int                  `json:"consignmentCount"`
	ConsignmentDetails []ConsignmentSummary `json:"consignmentDetails"`
}

// TravelHistory is the `{travels}` payload.
type TravelHistory struct {
	Travels []Travel `json:"travels"`
}

// DistanceRateTrain is the tiered train distance rate.
type DistanceRateTrain struct {
	Base float64 `json:"base"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// FareConfig is the single fare configuration record.
type FareConfig struct {
	TE                   float64           `json:"TE"`
	DeliveryFee          float64           `json:"deliveryFee"`
	Margin               float64           `json:"margin"`
	WeightRateTrain      float64           `json:"weightRateTrain"`
	WeightRateAirplane   float64           `json:"weightRateAirplane"`
	DistanceRateAirplane float64           `json:"distanceRateAirplane"`
	DistanceRateTrain    DistanceRateTrain `json:"distanceRateTrain"`
}

// UpdateResult is the `{success}` payload.
type UpdateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
