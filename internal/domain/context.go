package domain

// TripContext is the per-request record threaded through the stages. Every
// result field is written at most once, by the stage that owns it; a second
// write is an invariant violation. Diagnostics are appended by the planner only.
type TripContext struct {
	PlanID          string
	Request         TripRequest
	Options         Options
	WorkingCurrency string
	Diagnostics     []Diagnostic

	attractions *AttractionSet
	weather     *WeatherInfo
	hotel       *HotelEstimate
	costs       *CostBreakdown
	converted   *ConvertedCosts
	itinerary   *Itinerary
	summary     *TripSummary
}

func NewTripContext(planID string, req TripRequest, opts Options, workingCurrency string) *TripContext {
	return &TripContext{PlanID: planID, Request: req, Options: opts, WorkingCurrency: workingCurrency}
}

func (c *TripContext) SetAttractions(v AttractionSet) error {
	if c.attractions != nil {
		return Invariant("attractions already set")
	}
	c.attractions = &v
	return nil
}

func (c *TripContext) Attractions() (AttractionSet, bool) {
	if c.attractions == nil {
		return AttractionSet{}, false
	}
	return *c.attractions, true
}

func (c *TripContext) SetWeather(v WeatherInfo) error {
	if c.weather != nil {
		return Invariant("weather already set")
	}
	c.weather = &v
	return nil
}

func (c *TripContext) Weather() (WeatherInfo, bool) {
	if c.weather == nil {
		return WeatherInfo{}, false
	}
	return *c.weather, true
}

func (c *TripContext) SetHotel(v HotelEstimate) error {
	if c.hotel != nil {
		return Invariant("hotel estimate already set")
	}
	c.hotel = &v
	return nil
}

func (c *TripContext) Hotel() (HotelEstimate, bool) {
	if c.hotel == nil {
		return HotelEstimate{}, false
	}
	return *c.hotel, true
}

func (c *TripContext) SetCosts(v CostBreakdown) error {
	if c.costs != nil {
		return Invariant("cost breakdown already set")
	}
	c.costs = &v
	return nil
}

func (c *TripContext) Costs() (CostBreakdown, bool) {
	if c.costs == nil {
		return CostBreakdown{}, false
	}
	return *c.costs, true
}

func (c *TripContext) SetConverted(v ConvertedCosts) error {
	if c.converted != nil {
		return Invariant("converted costs already set")
	}
	c.converted = &v
	return nil
}

func (c *TripContext) Converted() (ConvertedCosts, bool) {
	if c.converted == nil {
		return ConvertedCosts{}, false
	}
	return *c.converted, true
}

func (c *TripContext) SetItinerary(v Itinerary) error {
	if c.itinerary != nil {
		return Invariant("itinerary already set")
	}
	c.itinerary = &v
	return nil
}

func (c *TripContext) Itinerary() (Itinerary, bool) {
	if c.itinerary == nil {
		return Itinerary{}, false
	}
	return *c.itinerary, true
}

func (c *TripContext) SetSummary(v TripSummary) error {
	if c.summary != nil {
		return Invariant("summary already set")
	}
	c.summary = &v
	return nil
}

func (c *TripContext) Summary() (TripSummary, bool) {
	if c.summary == nil {
		return TripSummary{}, false
	}
	return *c.summary, true
}
