package passenger

// Classes lists the ticket classes in order
var Classes = []Class{FirstClass, SecondClass, ThirdClass}

// Historical average fares by class, used when a query names a class but no fare
var classFares = map[Class]float64{
	FirstClass:  84.0,
	SecondClass: 20.0,
	ThirdClass:  13.0,
}

// DefaultFare is the fare assumed when neither fare nor class is known (2nd class average)
const DefaultFare = 20.0

// ClassFare returns the historical average fare for a class
func ClassFare(c Class) (float64, bool) {
	fare, ok := classFares[c]
	return fare, ok
}

// FareRange is the typical fare span paid for a class
type FareRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

var fareRanges = map[Class]FareRange{
	FirstClass:  {Min: 30, Max: 500, Label: "1st class"},
	SecondClass: {Min: 10, Max: 30, Label: "2nd class"},
	ThirdClass:  {Min: 0, Max: 15, Label: "3rd class"},
}

// TypicalFareRange returns the historical fare range for a class
func TypicalFareRange(c Class) (FareRange, bool) {
	r, ok := fareRanges[c]
	return r, ok
}
