package styles

// Status glyphs. Plain unicode so output stays readable without a Nerd Font.
const (
	IconSuccess = "✓"
	IconInfo    = "i"
	IconBullet  = "▸"
)
