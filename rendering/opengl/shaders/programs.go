package shaders

import (
	"climateglobe/rendering/glsl"
)

// BuildGlobeProgram compiles the phong globe shader with bump, specular and
// emissive maps.
func BuildGlobeProgram() (uint32, error) {
	return Build(glsl.Source(glsl.Version410, glsl.SphereVertex), glsl.Source(glsl.Version410, glsl.GlobeFragment))
}

// BuildShellProgram compiles the translucent shell shader used for clouds
// and atmosphere.
func BuildShellProgram() (uint32, error) {
	return Build(glsl.Source(glsl.Version410, glsl.SphereVertex), glsl.Source(glsl.Version410, glsl.ShellFragment))
}

// BuildLegendProgram compiles the flat colored-quad shader for screen space
// overlays.
func BuildLegendProgram() (uint32, error) {
	return Build(glsl.Source(glsl.Version410, glsl.LegendVertex), glsl.Source(glsl.Version410, glsl.LegendFragment))
}

// BuildCaptionProgram compiles the textured text quad shader
func BuildCaptionProgram() (uint32, error) {
	return Build(glsl.Source(glsl.Version410, glsl.CaptionVertex), glsl.Source(glsl.Version410, glsl.CaptionFragment))
}
