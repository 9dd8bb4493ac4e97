package models

// Condition is the standardized weather-state symbol handed to the presentation layer.
type Condition string

const (
	ConditionSunny          Condition = "sunny"
	ConditionCloudy         Condition = "cloudy"
	ConditionPartlyCloudy   Condition = "partlycloudy"
	ConditionFog            Condition = "fog"
	ConditionRainy          Condition = "rainy"
	ConditionPouring        Condition = "pouring"
	ConditionLightningRainy Condition = "lightning-rainy"
	ConditionSnowy          Condition = "snowy"
	ConditionSnowyRainy     Condition = "snowy-rainy"
	ConditionWindy          Condition = "windy"
	ConditionWindyVariant   Condition = "windy-variant"
	ConditionHurricane      Condition = "hurricane"
	ConditionHail           Condition = "hail"
	ConditionExceptional    Condition = "exceptional"
	ConditionUnknown        Condition = "unknown"
)

// Conditions lists every valid Condition.
var Conditions = []Condition{
	ConditionSunny,
	ConditionCloudy,
	ConditionPartlyCloudy,
	ConditionFog,
	ConditionRainy,
	ConditionPouring,
	ConditionLightningRainy,
	ConditionSnowy,
	ConditionSnowyRainy,
	ConditionWindy,
	ConditionWindyVariant,
	ConditionHurricane,
	ConditionHail,
	ConditionExceptional,
	ConditionUnknown,
}

// Valid reports whether c is one of the known symbols.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}
