// Package attribute mines technical facts (battery, cameras, memory, chipset)
// from free-text product descriptions.
package attribute

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Highlight thresholds.
const (
	LongBatteryMAh   = 5000
	SharpCameraMP    = 50
	FlagshipRAMGB    = 12
	gigabytesPerTera = 1024
)

// Field identifies one extracted attribute.
type Field string

// Extractable fields.
const (
	FieldBattery     Field = "battery"
	FieldRearCamera  Field = "rear_camera"
	FieldFrontCamera Field = "front_camera"
	FieldRAM         Field = "ram"
	FieldStorage     Field = "storage"
	FieldChipset     Field = "chipset"
)

// Attributes is the structured bag produced by the extractor.
// Zero values mean "not found".
type Attributes struct {
	BatteryMAh    int
	RearCameraMP  int
	FrontCameraMP int
	RAMGB         int
	StorageGB     int
	Chipset       string
	Highlights    []string
}

// IsEmpty reports whether no field was extracted.
func (a Attributes) IsEmpty() bool {
	return a.BatteryMAh == 0 && a.RearCameraMP == 0 && a.FrontCameraMP == 0 &&
		a.RAMGB == 0 && a.StorageGB == 0 && a.Chipset == "" && len(a.Highlights) == 0
}

// Has reports whether the field holds a value.
func (a Attributes) Has(f Field) bool {
	switch f {
	case FieldBattery:
		return a.BatteryMAh > 0
	case FieldRearCamera:
		return a.RearCameraMP > 0
	case FieldFrontCamera:
		return a.FrontCameraMP > 0
	case FieldRAM:
		return a.RAMGB > 0
	case FieldStorage:
		return a.StorageGB > 0
	case FieldChipset:
		return a.Chipset != ""
	default:
		return false
	}
}

// Display renders the field value with its unit, or "" when absent.
func (a Attributes) Display(f Field) string {
	if !a.Has(f) {
		return ""
	}
	switch f {
	case FieldBattery:
		return fmt.Sprintf("%d mAh", a.BatteryMAh)
	case FieldRearCamera:
		return fmt.Sprintf("%d MP", a.RearCameraMP)
	case FieldFrontCamera:
		return fmt.Sprintf("%d MP", a.FrontCameraMP)
	case FieldRAM:
		return fmt.Sprintf("%d GB", a.RAMGB)
	case FieldStorage:
		return fmt.Sprintf("%d GB", a.StorageGB)
	case FieldChipset:
		return a.Chipset
	}
	return ""
}

// highEndChipset matches SoC families treated as flagship performance.
var highEndChipset = regexp.MustCompile(
	`(?i)snapdragon\s*8\s*(?:\+\s*)?(?:gen|elite)|dimensity\s*9\d{3}|(?:apple\s*)?\ba1[5-9]\b|\btensor\b|exynos\s*2[1-9]\d{2}`,
)

// IsHighEndChipset reports whether the chipset name belongs to a flagship family.
func IsHighEndChipset(name string) bool {
	return name != "" && highEndChipset.MatchString(name)
}

// Highlights derives the qualitative highlight sentences for a set of attributes.
func Highlights(a Attributes) []string {
	var out []string
	if a.BatteryMAh >= LongBatteryMAh {
		out = append(out, fmt.Sprintf(
			"Long battery life (pin trâu) with a %d mAh battery.", a.BatteryMAh))
	}
	if a.RearCameraMP >= SharpCameraMP {
		out = append(out, fmt.Sprintf(
			"Sharp low-light photography (chụp đêm sắc nét) with a %d MP rear camera.", a.RearCameraMP))
	}
	if a.RAMGB >= FlagshipRAMGB || IsHighEndChipset(a.Chipset) {
		out = append(out, "Flagship-grade performance (hiệu năng mạnh mẽ) for gaming and multitasking.")
	}
	return out
}

// Merge fills the fields missing from a with values from fallback.
func Merge(a, fallback Attributes) Attributes {
	if !a.Has(FieldBattery) {
		a.BatteryMAh = fallback.BatteryMAh
	}
	if !a.Has(FieldRearCamera) {
		a.RearCameraMP = fallback.RearCameraMP
	}
	if !a.Has(FieldFrontCamera) {
		a.FrontCameraMP = fallback.FrontCameraMP
	}
	if !a.Has(FieldRAM) {
		a.RAMGB = fallback.RAMGB
	}
	if !a.Has(FieldStorage) {
		a.StorageGB = fallback.StorageGB
	}
	if !a.Has(FieldChipset) {
		a.Chipset = fallback.Chipset
	}
	a.Highlights = nil
	return a
}

// parseGrouped parses integers that may carry thousands separators ("5.000").
func parseGrouped(s string) (int, bool) {
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
