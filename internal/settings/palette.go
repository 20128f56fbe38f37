package settings

// Color is an RGB triple for one indicator LED.
type Color struct {
	R, G, B uint8
}

// Off is the unlit LED value.
var Off = Color{}

// Palette lists the selectable indicator colors.
var Palette = []Color{
	{R: 255, G: 0, B: 0},     // red
	{R: 0, G: 255, B: 0},     // green
	{R: 0, G: 0, B: 255},     // blue
	{R: 255, G: 160, B: 0},   // amber
	{R: 0, G: 255, B: 255},   // cyan
	{R: 255, G: 0, B: 255},   // magenta
	{R: 255, G: 255, B: 255}, // white
	{R: 255, G: 80, B: 0},    // orange
}

// PaletteColor returns the color for idx, clamped to the palette.
func PaletteColor(idx int) Color {
	return Palette[ColorBounds.Clamp(idx)]
}

// Dim scales c down to one eighth.
func (c Color) Dim() Color {
	return Color{R: c.R / 8, G: c.G / 8, B: c.B / 8}
}
