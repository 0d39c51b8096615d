package watchinfo

import "strings"

// full model codes matched before any prefix
var exactModels = map[string]Model{
	"ECB-10": ModelECB,
	"ECB-20": ModelECB,
	"ECB-30": ModelECB,
}

// Longer prefixes come first so that "GMW" is not taken for "GM" and
// "GBD" is not taken for "GB".
var prefixModels = []struct {
	prefix string
	model  Model
}{
	{"GB001", ModelGB001},
	{"MSG", ModelMSG},
	{"GPR", ModelGPR},
	{"GBM", ModelGA},
	{"GST", ModelGST},
	{"GBD", ModelGBD},
	{"GMW", ModelGMW},
	{"MRG", ModelMRG},
	{"OCW", ModelOCW},
	{"DW", ModelDW},
	{"GA", ModelGA},
	{"GB", ModelGB},
	{"GM", ModelGM},
	{"GW", ModelGW},
}

// ShortName returns the model token of an advertised name,
// "CASIO GW-B5600" -> "GW-B5600".
func ShortName(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// ModelOf classifies a short model name
func ModelOf(shortName string) Model {
	if shortName == "" {
		return ModelUnknown
	}
	if m, ok := exactModels[shortName]; ok {
		return m
	}
	upper := strings.ToUpper(shortName)
	for _, p := range prefixModels {
		if strings.HasPrefix(upper, p.prefix) {
			return p.model
		}
	}
	return ModelUnknown
}

// Resolve returns the capabilities for an advertised device name. Names
// that match no known family get the conservative default: two world
// cities, one DST slot and no reminders.
func Resolve(name string) Capabilities {
	short := ShortName(name)
	c := profile(ModelOf(short))
	c.Name = name
	c.ShortName = short
	return c
}

// Default returns the profile used before a watch has been identified
func Default() Capabilities {
	return profile(ModelUnknown)
}
