package types

// TripRequest is one inbound planning request.
type TripRequest struct {
	SourceCity      string `json:"source_city"`
	DestinationCity string `json:"destination_city"`
	DepartureDate   string `json:"departure_date"`
	ReturnDate      string `json:"return_date,omitempty"`
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FlightOffer is a flattened flight offer: first itinerary, first segment.
type FlightOffer struct {
	Airline          string `json:"airline"`
	FlightNumber     string `json:"flight_number"`
	DepartureTime    string `json:"departure_time"`
	ArrivalTime      string `json:"arrival_time"`
	DepartureAirport string `json:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport"`
	Duration         string `json:"duration"`
	Price            string `json:"price"`
	Currency         string `json:"currency"`
	Stops            int    `json:"stops"`
}

// Attraction is a point of interest near the destination.
type Attraction struct {
	Name     string  `json:"name"`
	Address  string  `json:"address,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	PlaceID  string  `json:"place_id,omitempty"`
	ImageURL string  `json:"image_url"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// Hotel is one hotel listed in the destination city.
type Hotel struct {
	HotelID  string  `json:"hotel_id"`
	Name     string  `json:"name"`
	IATACode string  `json:"iata_code,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// Forecast is one forecast slot.
type Forecast struct {
	Time        string  `json:"time"`
	TempC       float64 `json:"temp_c"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
}

// Weather is the short-range forecast for a city.
type Weather struct {
	City     string     `json:"city"`
	Forecast []Forecast `json:"forecast"`
}

// PlanContext is everything the trip view needs.
type PlanContext struct {
	Source          string        `json:"source"`
	Destination     string        `json:"destination"`
	DepartureDate   string        `json:"departure_date"`
	ReturnDate      string        `json:"return_date,omitempty"`
	NumDays         int           `json:"num_days"`
	SourceCoords    *Coordinates  `json:"source_coords"`
	DestCoords      *Coordinates  `json:"dest_coords"`
	OutboundFlights []FlightOffer `json:"outbound_flights"`
	ReturnFlights   []FlightOffer `json:"return_flights"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	Attractions     []Attraction  `json:"attractions"`
	Itinerary       string        `json:"itinerary"`
	Weather         *Weather      `json:"weather"`
	Hotels          []Hotel       `json:"hotels"`
	CheckOutDate    string        `json:"check_out_date,omitempty"`
	EstimatedCost   *float64      `json:"estimated_cost"`
}
