package attribute

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

var (
	leadingNumber = regexp.MustCompile(`(\d{1,2}[.,]\d{3}|\d+)`)
	terabytes     = regexp.MustCompile(`(?i)^\s*(\d)\s*tb`)
)

// FromSpecification reads the structured specification row into Attributes so
// highlight thresholds apply to catalogued values too. A nil spec yields an
// empty value.
func FromSpecification(spec *domain.Specification) Attributes {
	var a Attributes
	if spec == nil {
		return a
	}

	a.BatteryMAh = firstNumber(spec.Battery)
	a.RearCameraMP = firstNumber(spec.RearCamera)
	a.FrontCameraMP = firstNumber(spec.FrontCamera)
	a.RAMGB = firstNumber(spec.RAM)
	if m := terabytes.FindStringSubmatch(spec.Storage); m != nil {
		a.StorageGB = firstNumber(m[1]) * gigabytesPerTera
	} else {
		a.StorageGB = firstNumber(spec.Storage)
	}
	a.Chipset = collapseSpaces(spec.Chipset)

	a.Highlights = Highlights(a)
	return a
}

func firstNumber(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := parseGrouped(m[1])
	return n
}
