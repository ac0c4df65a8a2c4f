package attribute

import (
	"regexp"
	"strings"
)

// Rule is one ordered extraction step. Rules are evaluated top-down; a rule is
// skipped when its field was already set by an earlier rule, and within a rule
// the first accepted match wins.
type Rule struct {
	Name    string
	Field   Field
	Pattern *regexp.Regexp
	// Apply stores the match into a. It returns false to reject the match so
	// the next occurrence of the pattern is tried.
	Apply func(a *Attributes, m []string) bool
}

const cameraGap = `[^\n]{0,40}?`

var frontCameraWords = regexp.MustCompile(`(?i)camera\s*(?:trước|truoc|selfie|front)`)

// Rules is the extraction chain used by Extract.
var Rules = []Rule{
	{
		Name:    "battery_mah",
		Field:   FieldBattery,
		Pattern: regexp.MustCompile(`(?i)(\d{1,2}[.,]\d{3}|\d{3,5})\s*mah`),
		Apply:   setBattery,
	},
	{
		Name:    "rear_camera_labelled",
		Field:   FieldRearCamera,
		Pattern: regexp.MustCompile(`(?i)camera\s*(?:sau|chính|chinh|rear|main)` + cameraGap + `(\d{1,3})(?:[.,]\d+)?\s*mp`),
		Apply:   setRearCamera,
	},
	{
		Name:    "rear_camera_generic",
		Field:   FieldRearCamera,
		Pattern: regexp.MustCompile(`(?i)camera` + cameraGap + `(\d{1,3})(?:[.,]\d+)?\s*mp`),
		Apply: func(a *Attributes, m []string) bool {
			if frontCameraWords.MatchString(m[0]) {
				return false
			}
			return setRearCamera(a, m)
		},
	},
	{
		Name:    "front_camera_labelled",
		Field:   FieldFrontCamera,
		Pattern: regexp.MustCompile(`(?i)camera\s*(?:trước|truoc|selfie|front)` + cameraGap + `(\d{1,3})(?:[.,]\d+)?\s*mp`),
		Apply:   setFrontCamera,
	},
	{
		Name:    "ram_gb_suffix",
		Field:   FieldRAM,
		Pattern: regexp.MustCompile(`(?i)(\d{1,2})\s*gb\s*ram`),
		Apply:   setRAM,
	},
	{
		Name:    "ram_gb_prefix",
		Field:   FieldRAM,
		Pattern: regexp.MustCompile(`(?i)ram\s*:?\s*(\d{1,2})\s*gb`),
		Apply:   setRAM,
	},
	{
		Name:    "storage_gb_suffix",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)(\d{2,4})\s*gb\s*(?:rom|bộ nhớ|bo nho|storage)`),
		Apply:   setStorageGB,
	},
	{
		Name:    "storage_gb_prefix",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)(?:rom|bộ nhớ trong|bộ nhớ|storage)\s*:?\s*(\d{2,4})\s*gb`),
		Apply:   setStorageGB,
	},
	{
		Name:    "storage_tb",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)\b(\d)\s*tb\b`),
		Apply: func(a *Attributes, m []string) bool {
			n, ok := parseGrouped(m[1])
			if !ok {
				return false
			}
			a.StorageGB = n * gigabytesPerTera
			return true
		},
	},
	{
		Name:  "chipset_family",
		Field: FieldChipset,
		Pattern: regexp.MustCompile(`(?i)\b(snapdragon\s*8\s*(?:\+\s*)?(?:gen\s*\d|elite)|snapdragon\s*\d{3}|` +
			`dimensity\s*\d{3,4}(?:\s*(?:ultra|plus))?|apple\s*a\d{2}(?:\s*(?:pro|bionic))?|a\d{2}\s*(?:pro|bionic)|` +
			`exynos\s*\d{3,4}|helio\s*[gp]\d{2,3}|tensor\s*g\d|kirin\s*\d{3,4})`),
		Apply: func(a *Attributes, m []string) bool {
			a.Chipset = collapseSpaces(m[1])
			return true
		},
	},
}

// Extract runs the rule chain over text and derives highlights. Blank input
// yields an empty Attributes value.
func Extract(text string) Attributes {
	var a Attributes
	if strings.TrimSpace(text) == "" {
		return a
	}

	for _, r := range Rules {
		if a.Has(r.Field) {
			continue
		}
		for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
			if r.Apply(&a, m) {
				break
			}
		}
	}

	a.Highlights = Highlights(a)
	return a
}

func setBattery(a *Attributes, m []string) bool {
	n, ok := parseGrouped(m[1])
	if !ok {
		return false
	}
	a.BatteryMAh = n
	return true
}

func setRearCamera(a *Attributes, m []string) bool {
	n, ok := parseGrouped(m[1])
	if !ok {
		return false
	}
	a.RearCameraMP = n
	return true
}

func setFrontCamera(a *Attributes, m []string) bool {
	n, ok := parseGrouped(m[1])
	if !ok {
		return false
	}
	a.FrontCameraMP = n
	return true
}

func setRAM(a *Attributes, m []string) bool {
	n, ok := parseGrouped(m[1])
	if !ok {
		return false
	}
	a.RAMGB = n
	return true
}

func setStorageGB(a *Attributes, m []string) bool {
	n, ok := parseGrouped(m[1])
	if !ok {
		return false
	}
	a.StorageGB = n
	return true
}
