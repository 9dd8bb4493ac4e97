package messaging

const (
	ExchangeName             = "weather.station"
	StationUpdatedRoutingKey = "station.updated"
)
