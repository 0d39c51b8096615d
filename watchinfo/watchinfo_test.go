package watchinfo

import "testing"

func TestResolveGMWNotMistakenForGW(t *testing.T) {
	c := Resolve("CASIO GMW-B5000")
	if c.Model != ModelGMW {
		t.Fatalf("model = %v, want GMW", c.Model)
	}
	if c.WorldCitiesCount != 6 || !c.HasAutoLight {
		t.Errorf("GMW profile wrong: %+v", c)
	}
	if c.ShortName != "GMW-B5000" {
		t.Errorf("short name = %q", c.ShortName)
	}
}

func TestResolveTable(t *testing.T) {
	cases := []struct {
		name  string
		model Model
	}{
		{"CASIO GW-B5600", ModelGW},
		{"CASIO MRG-B5000", ModelMRG},
		{"CASIO GA-B2100", ModelGA},
		{"CASIO GBM-2100", ModelGA},
		{"CASIO GBD-H1000", ModelGBD},
		{"CASIO GB-5600", ModelGB},
		{"CASIO GM-B2100", ModelGM},
		{"CASIO GST-B500", ModelGST},
		{"CASIO MSG-B100", ModelMSG},
		{"CASIO GPR-H1000", ModelGPR},
		{"CASIO DW-B5600", ModelDW},
		{"CASIO OCW-T200", ModelOCW},
		{"CASIO ECB-10", ModelECB},
		{"CASIO ECB-2000", ModelUnknown},
		{"CASIO", ModelUnknown},
		{"", ModelUnknown},
		{"CASIO ZZ-9", ModelUnknown},
	}
	for _, c := range cases {
		if got := Resolve(c.name).Model; got != c.model {
			t.Errorf("Resolve(%q) = %v, want %v", c.name, got, c.model)
		}
	}
}

func TestDefaultProfileIsConservative(t *testing.T) {
	c := Resolve("CASIO XYZ-1")
	if c.WorldCitiesCount != 2 || c.DSTCount != 1 || c.HasReminders {
		t.Errorf("default profile = %+v", c)
	}
	if c.Name != "CASIO XYZ-1" {
		t.Errorf("name not kept: %q", c.Name)
	}
}

func TestBatteryCalibration(t *testing.T) {
	gw := Resolve("CASIO GW-B5600").BatteryScale()
	if gw.Lower != 9 || gw.Upper != 19 {
		t.Errorf("GW scale = %+v", gw)
	}
	ga := Resolve("CASIO GA-B2100").BatteryScale()
	if ga.Lower != 15 || ga.Upper != 20 {
		t.Errorf("GA scale = %+v", ga)
	}
}

func TestECBFlags(t *testing.T) {
	c := Resolve("CASIO ECB-30")
	if !c.AlwaysConnected || !c.FindButtonUserDefined || !c.HasDnD || c.Temperature || c.HasPowerSavingMode {
		t.Errorf("ECB profile = %+v", c)
	}
}

func TestFamilyFlags(t *testing.T) {
	if Resolve("CASIO GPR-H1000").WeekLanguageSupported {
		t.Error("GPR should not support week language")
	}
	gbd := Resolve("CASIO GBD-200")
	if gbd.WorldCities || gbd.Temperature {
		t.Errorf("GBD profile = %+v", gbd)
	}
	gw := Resolve("CASIO GW-B5600")
	if gw.HasAutoLight || !gw.HasReminders || gw.DSTCount != 3 {
		t.Errorf("GW profile = %+v", gw)
	}
	if gw.LightDurationLabel(1) != "4s" {
		t.Errorf("long light label = %q", gw.LightDurationLabel(1))
	}
}
