package watchinfo

// Battery calibration varies between revisions of the same family. These
// limits come from the most recent measurements and are not confirmed on
// every model.
const (
	defaultBatteryLower = 15
	defaultBatteryUpper = 20
)

func base() Capabilities {
	return Capabilities{
		AlarmCount:            5,
		WeekLanguageSupported: true,
		WorldCities:           true,
		Temperature:           true,
		BatteryLevelLower:     defaultBatteryLower,
		BatteryLevelUpper:     defaultBatteryUpper,
	}
}

func sixCity(autoLight bool) Capabilities {
	c := base()
	c.WorldCitiesCount = 6
	c.DSTCount = 3
	c.HasAutoLight = autoLight
	c.HasReminders = true
	c.ShortLightDuration = "2s"
	c.LongLightDuration = "4s"
	return c
}

func twoCity(reminders bool) Capabilities {
	c := base()
	c.WorldCitiesCount = 2
	c.DSTCount = 1
	c.HasAutoLight = true
	c.HasReminders = reminders
	c.ShortLightDuration = "1.5s"
	c.LongLightDuration = "3s"
	return c
}

// profile returns the capability set of a model family
func profile(m Model) Capabilities {
	var c Capabilities
	switch m {
	case ModelGW, ModelMRG:
		c = sixCity(false)
		c.BatteryLevelLower = 9
		c.BatteryLevelUpper = 19
	case ModelGMW:
		c = sixCity(true)
	case ModelGST, ModelGA, ModelMSG:
		c = twoCity(true)
	case ModelGB001, ModelDW:
		c = twoCity(false)
	case ModelGPR:
		c = twoCity(false)
		c.WeekLanguageSupported = false
	case ModelGBD:
		c = twoCity(false)
		c.WorldCities = false
		c.Temperature = false
	case ModelECB:
		c = twoCity(false)
		c.Temperature = false
		c.AlwaysConnected = true
		c.FindButtonUserDefined = true
		c.HasDnD = true
	case ModelGB, ModelGM, ModelOCW:
		c = base()
		c.WorldCitiesCount = 2
		c.DSTCount = 3
		c.HasPowerSavingMode = true
		c.ShortLightDuration = "1.5s"
		c.LongLightDuration = "3s"
	default:
		c = twoCity(false)
	}
	c.Model = m
	return c
}
