// Package condition maps NMC condition strings onto the standardized Condition set.
package condition

import (
	"strings"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
)

// table is built once and never written afterwards.
var table = map[string]models.Condition{
	"晴":    models.ConditionSunny,
	"多云":   models.ConditionCloudy,
	"局部多云": models.ConditionPartlyCloudy,
	"少云":   models.ConditionPartlyCloudy,
	"阴":    models.ConditionCloudy,

	"薄雾":   models.ConditionFog,
	"雾":    models.ConditionFog,
	"中雾":   models.ConditionFog,
	"大雾":   models.ConditionFog,
	"浓雾":   models.ConditionFog,
	"强浓雾":  models.ConditionFog,
	"霾":    models.ConditionFog,
	"扬沙":   models.ConditionFog,
	"浮尘":   models.ConditionFog,
	"沙尘":   models.ConditionFog,
	"沙尘暴":  models.ConditionFog,
	"强沙尘暴": models.ConditionFog,

	"雨":    models.ConditionRainy,
	"小雨":   models.ConditionRainy,
	"中雨":   models.ConditionRainy,
	"阵雨":   models.ConditionRainy,
	"冻雨":   models.ConditionRainy,
	"小到中雨": models.ConditionRainy,
	"大雨":   models.ConditionPouring,
	"暴雨":   models.ConditionPouring,
	"大暴雨":  models.ConditionPouring,
	"特大暴雨": models.ConditionPouring,
	"中到大雨": models.ConditionPouring,
	"大到暴雨": models.ConditionPouring,

	"雷阵雨":     models.ConditionLightningRainy,
	"雷阵雨伴有冰雹": models.ConditionHail,
	"冰雹":      models.ConditionHail,

	"雨夹雪":  models.ConditionSnowyRainy,
	"雪":    models.ConditionSnowy,
	"小雪":   models.ConditionSnowy,
	"中雪":   models.ConditionSnowy,
	"大雪":   models.ConditionSnowy,
	"暴雪":   models.ConditionSnowy,
	"阵雪":   models.ConditionSnowy,
	"小到中雪": models.ConditionSnowy,
	"中到大雪": models.ConditionSnowy,
	"大到暴雪": models.ConditionSnowy,

	"有风": models.ConditionWindy,
	"大风": models.ConditionWindy,
	"风":  models.ConditionWindyVariant,
	"台风": models.ConditionHurricane,
	"飓风": models.ConditionHurricane,

	"未知":   models.ConditionExceptional,
	"9999": models.ConditionExceptional,
}

// Lookup returns the mapped code and whether raw was present in the table.
func Lookup(raw string) (models.Condition, bool) {
	c, ok := table[strings.TrimSpace(raw)]
	if !ok {
		return models.ConditionExceptional, false
	}
	return c, true
}

// Translate never fails: strings missing from the table become ConditionExceptional.
func Translate(raw string) models.Condition {
	c, _ := Lookup(raw)
	return c
}

// Known returns a copy of the table.
func Known() map[string]models.Condition {
	out := make(map[string]models.Condition, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
