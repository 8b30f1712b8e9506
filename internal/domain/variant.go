package domain

import "fmt"

// Variant is a page identity over the same 2 m air-temperature field.
// Variants differ only in unit handling and labels, and never share cache
// entries.
type Variant struct {
	Name          string
	Label         string // Quantity label, e.g. "지상 2m 기온".
	PageTitle     string
	ConvertToDegC bool
	Note          string // Shown under the map, if set.
}

var (
	// VariantSurface passes the source values through unmodified.
	VariantSurface = Variant{
		Name:      "surface",
		Label:     "지상 2m 기온",
		PageTitle: "NOAA 일일 지상 2m 기온 자동 시각화",
		Note:      "지상 지도는 켈빈(K) 값을 변환 없이 섭씨 색상 범위에 표시하므로 대부분의 격자가 최고 온도 색으로 나타납니다. 섭씨 값은 해상 지도를 참고하세요.",
	}

	// VariantSea converts kelvin to degrees Celsius.
	VariantSea = Variant{
		Name:          "sea",
		Label:         "해상 2m 기온",
		PageTitle:     "NOAA 일일 해상 2m 기온 자동 시각화",
		ConvertToDegC: true,
	}
)

// Variants lists every known variant in display order.
func Variants() []Variant {
	return []Variant{VariantSurface, VariantSea}
}

// VariantByName looks up a variant by its URL name.
func VariantByName(name string) (Variant, error) {
	for _, v := range Variants() {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("unknown variant %q", name)
}

// ColorBarLabel returns the color bar caption, e.g. "지상 2m 기온 (°C)".
func (v Variant) ColorBarLabel() string {
	return v.Label + " (°C)"
}

// Title returns the figure title for a date.
func (v Variant) Title(d Date) string {
	return fmt.Sprintf("%s: %s", v.Label, d.Korean())
}

// Heading returns the page subheader for a date.
func (v Variant) Heading(d Date) string {
	return fmt.Sprintf("%s %s 지도", d.Korean(), v.Label)
}
