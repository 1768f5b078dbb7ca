package domain

type Formality string

const (
	FormalityInformal    Formality = "informal"
	FormalitySemiFormal  Formality = "semi_formal"
	FormalityFormal      Formality = "formal"
	FormalityContractual Formality = "contractual"
	FormalityLegal       Formality = "legal"
)

// FormalityLevels lists the ladder from least to most formal.
var FormalityLevels = []Formality{
	FormalityInformal,
	FormalitySemiFormal,
	FormalityFormal,
	FormalityContractual,
	FormalityLegal,
}

var formalityValues = map[Formality]float64{
	FormalityInformal:    0.0,
	FormalitySemiFormal:  0.25,
	FormalityFormal:      0.5,
	FormalityContractual: 0.75,
	FormalityLegal:       1.0,
}

func ValidFormality(f string) bool {
	_, ok := formalityValues[Formality(f)]
	return ok
}

// Float maps the rung onto [0,1]. Unknown values map to Formal.
func (f Formality) Float() float64 {
	if v, ok := formalityValues[f]; ok {
		return v
	}
	return formalityValues[FormalityFormal]
}

// FormalityFromFloat picks the rung whose bucket contains v. Bucket edges
// sit halfway between rungs.
func FormalityFromFloat(v float64) Formality {
	switch {
	case v < 0.125:
		return FormalityInformal
	case v < 0.375:
		return FormalitySemiFormal
	case v < 0.625:
		return FormalityFormal
	case v < 0.875:
		return FormalityContractual
	default:
		return FormalityLegal
	}
}
