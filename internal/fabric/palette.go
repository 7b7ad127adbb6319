package fabric

import "fmt"

// RGB is a color with components in [0, 1].
type RGB [3]float32

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	b := c.Bytes()
	return fmt.Sprintf("#%02x%02x%02x", b[0], b[1], b[2])
}

// Bytes scales the components to 0..255, clamping out-of-range values.
func (c RGB) Bytes() [3]uint8 {
	var out [3]uint8
	for i, v := range c {
		switch {
		case v <= 0:
			out[i] = 0
		case v >= 1:
			out[i] = 255
		default:
			out[i] = uint8(v*255 + 0.5)
		}
	}
	return out
}

// Sentinel colors for intervals that carry no meaningful strain.
var (
	attenuatedColor = RGB{0, 0, 0}
	slackColor      = RGB{0, 1, 0}
)

// AttenuatedColor is drawn for intervals whose strain is not shown.
func AttenuatedColor() RGB { return attenuatedColor }

// SlackColor is drawn for intervals under no tension.
func SlackColor() RGB { return slackColor }

var roleColors = [RoleCount]RGB{
	RoleNexusPush:   {0.799, 0.519, 0.304},
	RoleColumnPush:  {0.879, 0.295, 0.374},
	RoleTriangle:    {0.215, 0.629, 0.747},
	RoleRing:        {0.618, 0.126, 0.776},
	RoleNexusCross:  {0.670, 0.627, 0.398},
	RoleColumnCross: {0.242, 0.879, 0.410},
	RoleBowMid:      {0.613, 0.692, 0.382},
	RoleBowEnd:      {0.705, 0.709, 0.019},
	RoleFacePull:    {0.577, 0.577, 0.577},
}

var rainbow = [12]RGB{
	{0.1373, 0.1608, 0.9686},
	{0.0000, 0.4824, 1.0000},
	{0.0000, 0.6471, 1.0000},
	{0.0000, 0.7686, 0.8431},
	{0.0000, 0.8667, 0.6784},
	{0.3059, 0.8667, 0.5137},
	{0.5020, 0.8549, 0.3216},
	{0.6863, 0.8235, 0.0000},
	{0.8314, 0.7098, 0.0000},
	{0.9294, 0.5804, 0.0000},
	{0.9843, 0.4431, 0.1647},
	{0.9882, 0.3020, 0.3020},
}

// RoleColors returns a copy of the role palette, indexed by IntervalRole tag.
func RoleColors() [RoleCount]RGB { return roleColors }

// Rainbow returns a copy of the blue-to-red gradient for strain and other
// continuous values. Sampling between entries is up to the renderer.
func Rainbow() [12]RGB { return rainbow }

// RoleColor returns the display color of role, or AttenuatedColor for an
// undeclared role.
func RoleColor(role IntervalRole) RGB {
	if !role.Valid() {
		return attenuatedColor
	}
	return roleColors[role]
}
