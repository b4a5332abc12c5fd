// Package levelstyle maps a profile level to its cosmetic badge tier.
package levelstyle

// Style is the badge appearance for a level range. Effects escalate with the
// tier: plain color, gradient, glow, shimmer and finally rainbow.
type Style struct {
	Color    string `json:"color"`
	Gradient string `json:"gradient,omitempty"`
	Glow     string `json:"glow,omitempty"`
	Shimmer  bool   `json:"shimmer,omitempty"`
	Rainbow  bool   `json:"rainbow,omitempty"`
	Name     string `json:"name"`
}

type tier struct {
	below int64 // exclusive upper bound; 0 means unbounded
	style Style
}

var tiers = []tier{
	{5, Style{Color: "#8B8B8B", Name: "Novice"}},
	{10, Style{Color: "#4A90E2", Gradient: "linear-gradient(135deg, #4A90E2, #357ABD)", Name: "Apprentice"}},
	{15, Style{Color: "#5BC0DE", Gradient: "linear-gradient(135deg, #5BC0DE, #31B0D5)", Name: "Intermediate"}},
	{20, Style{Color: "#5CB85C", Gradient: "linear-gradient(135deg, #5CB85C, #4CAE4C)", Name: "Experienced"}},
	{25, Style{Color: "#A4D007", Gradient: "linear-gradient(135deg, #A4D007, #8AB904)", Name: "Proficient"}},
	{30, Style{Color: "#F39C12", Gradient: "linear-gradient(135deg, #F39C12, #E67E22)", Glow: "rgba(243, 156, 18, 0.5)", Name: "Advanced"}},
	{35, Style{Color: "#E74C3C", Gradient: "linear-gradient(135deg, #E74C3C, #C0392B)", Glow: "rgba(231, 76, 60, 0.6)", Name: "Expert"}},
	{40, Style{Color: "#9B59B6", Gradient: "linear-gradient(135deg, #9B59B6, #8E44AD)", Glow: "rgba(155, 89, 182, 0.6)", Name: "Elite"}},
	{45, Style{Color: "#E91E63", Gradient: "linear-gradient(135deg, #E91E63, #C2185B)", Glow: "rgba(233, 30, 99, 0.7)", Name: "Master"}},
	{50, Style{Color: "#FFD700", Gradient: "linear-gradient(135deg, #FFD700, #FFA500)", Glow: "rgba(255, 215, 0, 0.7)", Name: "Grandmaster"}},
	{75, Style{Color: "#E5E4E2", Gradient: "linear-gradient(135deg, #E5E4E2, #BCC6CC, #E5E4E2)", Glow: "rgba(229, 228, 226, 0.8)", Shimmer: true, Name: "Platinum"}},
	{100, Style{Color: "#00D4FF", Gradient: "linear-gradient(135deg, #00D4FF, #0099CC)", Glow: "rgba(0, 212, 255, 0.9)", Shimmer: true, Name: "Diamond"}},
	{125, Style{Color: "#00FF88", Gradient: "linear-gradient(135deg, #00FF88, #00CC6A)", Glow: "rgba(0, 255, 136, 1)", Shimmer: true, Name: "Emerald"}},
	{150, Style{Color: "#FF8C00", Gradient: "linear-gradient(135deg, #FF8C00, #FF6347)", Glow: "rgba(255, 140, 0, 1)", Shimmer: true, Name: "Inferno"}},
	{175, Style{Color: "#FF2D2D", Gradient: "linear-gradient(135deg, #FF2D2D, #CC0000)", Glow: "rgba(255, 45, 45, 1)", Shimmer: true, Name: "Crimson"}},
	{200, Style{Color: "#B620E0", Gradient: "linear-gradient(135deg, #B620E0, #8B00CC)", Glow: "rgba(182, 32, 224, 1)", Shimmer: true, Name: "Mystic"}},
	{225, Style{Color: "#FF1493", Gradient: "linear-gradient(135deg, #FF1493, #FF69B4)", Glow: "rgba(255, 20, 147, 1)", Shimmer: true, Name: "Celestial"}},
	{250, Style{Color: "#FFD700", Gradient: "linear-gradient(135deg, #FFD700, #FFED4E, #FFD700)", Glow: "rgba(255, 215, 0, 1)", Shimmer: true, Name: "Radiant"}},
	{275, Style{Color: "#E5E4E2", Gradient: "linear-gradient(135deg, #E5E4E2, #FFFFFF, #E5E4E2)", Glow: "rgba(255, 255, 255, 1)", Shimmer: true, Name: "Transcendent"}},
	{0, Style{
		Color:    "#FF0080",
		Gradient: "linear-gradient(135deg, #FF0080, #FF8C00, #FFD700, #00FF00, #00D4FF, #0080FF, #8000FF)",
		Glow:     "rgba(255, 0, 128, 1)",
		Shimmer:  true,
		Rainbow:  true,
		Name:     "Legendary",
	}},
}

// ForLevel returns the badge style for level. Levels below 1 get the lowest tier.
func ForLevel(level int64) Style {
	for _, t := range tiers {
		if t.below == 0 || level < t.below {
			return t.style
		}
	}
	return tiers[len(tiers)-1].style
}

// Rank returns the tier name for level.
func Rank(level int64) string {
	return ForLevel(level).Name
}
