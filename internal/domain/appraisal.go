package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAppraisal is returned for inputs the appraisal cannot price.
var ErrInvalidAppraisal = errors.New("invalid appraisal input")

// LotShape selects how land area is measured.
type LotShape string

const (
	LotRegular   LotShape = "regular"
	LotIrregular LotShape = "irregular"
)

// AppraisalInput describes a property for the evaluative method: land priced
// per square meter with a narrow-frontage discount, plus the building priced
// per square meter after depreciation.
type AppraisalInput struct {
	Shape LotShape `json:"shape"`
	// Frontage and Depth measure a regular lot, in meters. Frontage also
	// drives the narrow-lot discount for irregular lots.
	Frontage float64 `json:"frontage"`
	Depth    float64 `json:"depth"`
	// SideA..SideD and Diagonal measure an irregular quadrilateral lot split
	// along Diagonal into triangles (A, B, Diagonal) and (C, D, Diagonal).
	SideA    float64 `json:"sideA"`
	SideB    float64 `json:"sideB"`
	SideC    float64 `json:"sideC"`
	SideD    float64 `json:"sideD"`
	Diagonal float64 `json:"diagonal"`

	BuiltArea          float64 `json:"builtArea"`
	PricePerMeterLand  float64 `json:"pricePerMeterLand"`
	PricePerMeterBuilt float64 `json:"pricePerMeterBuilt"`
	BuildingAge        float64 `json:"buildingAge"`
	// ConservationState multiplies physical depreciation, 0..1.
	ConservationState float64 `json:"conservationState"`
	// IncorporationFactor is the market multiplier on land plus building.
	IncorporationFactor float64 `json:"incorporationFactor"`
}

// Appraisal is the priced result. Money values share the input currency.
type Appraisal struct {
	LandArea        float64 `json:"landArea"`
	LandValue       float64 `json:"landValue"`
	BuildingValue   float64 `json:"buildingValue"`
	Total           float64 `json:"total"`
	DepreciationPct float64 `json:"depreciationPct"`
	ValuePerMeter   float64 `json:"valuePerMeter"`
}

const (
	narrowFrontage       = 10.0
	narrowFrontageFactor = 0.9
	usefulLifeYears      = 60.0
	minPhysicalFactor    = 0.1
)

// DefaultAppraisalInput is a typical urban lot used to prefill forms.
func DefaultAppraisalInput() AppraisalInput {
	return AppraisalInput{
		Shape:               LotRegular,
		Frontage:            12,
		Depth:               30,
		SideA:               15,
		SideB:               25,
		SideC:               12,
		SideD:               26,
		Diagonal:            30,
		BuiltArea:           210,
		PricePerMeterLand:   1500,
		PricePerMeterBuilt:  3200,
		BuildingAge:         15,
		ConservationState:   0.85,
		IncorporationFactor: 1.15,
	}
}

// TriangleArea applies Heron's formula. Side lengths that cannot close a
// triangle yield zero.
func TriangleArea(a, b, c float64) float64 {
	s := (a + b + c) / 2
	sq := s * (s - a) * (s - b) * (s - c)
	if sq <= 0 || math.IsNaN(sq) {
		return 0
	}
	return math.Sqrt(sq)
}

// LandArea measures the lot in square meters.
func (in AppraisalInput) LandArea() float64 {
	if in.Shape == LotIrregular {
		return TriangleArea(in.SideA, in.SideB, in.Diagonal) + TriangleArea(in.SideC, in.SideD, in.Diagonal)
	}
	return in.Frontage * in.Depth
}

func (in AppraisalInput) validate() error {
	switch in.Shape {
	case LotRegular, LotIrregular:
	default:
		return fmt.Errorf("%w: shape must be regular or irregular", ErrInvalidAppraisal)
	}
	for name, v := range map[string]float64{
		"frontage":            in.Frontage,
		"depth":               in.Depth,
		"sideA":               in.SideA,
		"sideB":               in.SideB,
		"sideC":               in.SideC,
		"sideD":               in.SideD,
		"diagonal":            in.Diagonal,
		"builtArea":           in.BuiltArea,
		"pricePerMeterLand":   in.PricePerMeterLand,
		"pricePerMeterBuilt":  in.PricePerMeterBuilt,
		"buildingAge":         in.BuildingAge,
		"incorporationFactor": in.IncorporationFactor,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidAppraisal, name)
		}
	}
	if in.ConservationState < 0 || in.ConservationState > 1 {
		return fmt.Errorf("%w: conservationState must be between 0 and 1", ErrInvalidAppraisal)
	}
	return nil
}

// Appraise prices the property. An unmeasurable lot counts as one square
// meter so the building still gets priced.
func Appraise(in AppraisalInput) (Appraisal, error) {
	if err := in.validate(); err != nil {
		return Appraisal{}, err
	}

	area := in.LandArea()
	if area <= 0 {
		area = 1
	}
	frontage := 1.0
	if in.Frontage < narrowFrontage {
		frontage = narrowFrontageFactor
	}
	land := area * in.PricePerMeterLand * frontage

	physical := math.Max(minPhysicalFactor, 1-in.BuildingAge/usefulLifeYears)
	effective := physical * in.ConservationState
	building := in.BuiltArea * in.PricePerMeterBuilt * effective

	total := (land + building) * in.IncorporationFactor
	built := in.BuiltArea
	if built == 0 {
		built = 1
	}
	return Appraisal{
		LandArea:        area,
		LandValue:       land,
		BuildingValue:   building,
		Total:           total,
		DepreciationPct: (1 - effective) * 100,
		ValuePerMeter:   total / built,
	}, nil
}
