package glsl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourcePrependsVersion(t *testing.T) {
	src := Source(Version330, GlobeFragment)
	assert.True(t, strings.HasPrefix(src, "#version 330\n"))
}

func TestFragmentsDeclareBackendUniforms(t *testing.T) {
	for _, name := range []string{
		"diffuseMap", "bumpMap", "specularMap", "emissiveMap",
		"hasEmissive", "bumpScale", "specularTint", "shininess",
		"emissiveColor", "emissiveIntensity", "lightCount", "ambientLight", "cameraPos",
	} {
		assert.Contains(t, GlobeFragment, "uniform", name)
		assert.Contains(t, GlobeFragment, " "+name+";", name)
	}
	for _, name := range []string{"shellMap", "hasMap", "shellColor", "opacity", "backSide"} {
		assert.Contains(t, ShellFragment, " "+name+";", name)
	}
}

func TestSourcesCarryNoVersionLine(t *testing.T) {
	for _, src := range []string{SphereVertex, RaylibSphereVertex, GlobeFragment, ShellFragment, LegendVertex, LegendFragment, CaptionVertex, CaptionFragment} {
		assert.NotContains(t, src, "#version")
	}
}
