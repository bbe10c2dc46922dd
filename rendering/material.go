package rendering

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture is a handle to an uploaded image owned by a backend
type Texture struct {
	ID     uint32
	Width  int
	Height int
}

// Valid reports whether the handle refers to an uploaded texture
func (t Texture) Valid() bool { return t.ID != 0 }

// TextureUploader moves pixel buffers to the GPU and frees them again.
// Implementations live in the backend packages.
type TextureUploader interface {
	Upload(img *image.RGBA) (Texture, error)
	Release(tex Texture)
}

// BaseTextures are the planetary maps that stay constant after loading
type BaseTextures struct {
	Diffuse  Texture
	Bump     Texture
	Specular Texture
	Clouds   Texture
}

// Material is the phong surface of the globe sphere
type Material struct {
	Map         Texture
	BumpMap     Texture
	SpecularMap Texture
	EmissiveMap Texture

	BumpScale         float32
	Specular          mgl32.Vec3
	Shininess         float32
	Emissive          mgl32.Vec3
	EmissiveIntensity float32
}

// ShellMaterial is a translucent sphere drawn around the globe
type ShellMaterial struct {
	Map        Texture
	Color      mgl32.Vec3
	Opacity    float32
	Scale      float32
	DepthWrite bool
	BackSide   bool
}

// Surface constants for the globe material
const (
	BumpScale         = 0.05
	Shininess         = 25
	EmissiveIntensity = 0.5
)

var (
	SpecularTint   = HexColor(0x333333)
	EmissiveColor  = HexColor(0xffffff)
	AtmosphereTint = HexColor(0x93c5fd)
)

// RenderState holds everything a backend needs to draw the globe except
// the rotation angles, which the animation package owns.
type RenderState struct {
	Globe      Material
	Clouds     ShellMaterial
	Atmosphere ShellMaterial

	// OverlayVersion increments every time a new emissive map is bound
	OverlayVersion int
}

// NewRenderState creates the per-session state with the shell constants set
func NewRenderState() *RenderState {
	return &RenderState{
		Clouds: ShellMaterial{
			Color:      mgl32.Vec3{1, 1, 1},
			Opacity:    0.4,
			Scale:      1.003,
			DepthWrite: false,
		},
		Atmosphere: ShellMaterial{
			Color:      AtmosphereTint,
			Opacity:    0.1,
			Scale:      1.1,
			DepthWrite: true,
			BackSide:   true,
		},
	}
}

// Compositor binds textures onto the render state. It is the only writer of
// material fields.
type Compositor struct {
	uploader TextureUploader
}

// NewCompositor creates a compositor that uploads overlays through u
func NewCompositor(u TextureUploader) *Compositor {
	return &Compositor{uploader: u}
}

var errNilState = errors.New("render state is nil")

// Composite assigns the base maps and the overlay onto state. The overlay is
// uploaded first; only after it is bound is the previous emissive texture
// released, so a failed upload leaves the old overlay on screen.
func (c *Compositor) Composite(state *RenderState, base BaseTextures, overlay *image.RGBA) error {
	if state == nil {
		return errNilState
	}

	g := &state.Globe
	g.Map = base.Diffuse
	g.BumpMap = base.Bump
	g.BumpScale = BumpScale
	g.SpecularMap = base.Specular
	g.Specular = SpecularTint
	g.Shininess = Shininess
	g.Emissive = EmissiveColor
	g.EmissiveIntensity = EmissiveIntensity
	state.Clouds.Map = base.Clouds

	var next Texture
	if overlay != nil {
		tex, err := c.uploader.Upload(overlay)
		if err != nil {
			return fmt.Errorf("upload overlay: %w", err)
		}
		next = tex
	}

	prev := g.EmissiveMap
	g.EmissiveMap = next
	state.OverlayVersion++
	if prev.Valid() && prev.ID != next.ID {
		c.uploader.Release(prev)
	}
	return nil
}

// Release frees the overlay texture currently bound to state
func (c *Compositor) Release(state *RenderState) {
	if state == nil || !state.Globe.EmissiveMap.Valid() {
		return
	}
	c.uploader.Release(state.Globe.EmissiveMap)
	state.Globe.EmissiveMap = Texture{}
}

// HexColor converts 0xRRGGBB into a linear 0..1 vector
func HexColor(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xff) / 255,
		float32((hex>>8)&0xff) / 255,
		float32(hex&0xff) / 255,
	}
}

// BaseImages are the decoded planetary maps before upload
type BaseImages struct {
	Diffuse  *image.RGBA
	Bump     *image.RGBA
	Specular *image.RGBA
	Clouds   *image.RGBA
}

// UploadBase uploads every non-nil base image. On failure the textures
// already uploaded are released again.
func UploadBase(u TextureUploader, imgs BaseImages) (BaseTextures, error) {
	var out BaseTextures
	steps := []struct {
		name string
		img  *image.RGBA
		dst  *Texture
	}{
		{"diffuse", imgs.Diffuse, &out.Diffuse},
		{"bump", imgs.Bump, &out.Bump},
		{"specular", imgs.Specular, &out.Specular},
		{"clouds", imgs.Clouds, &out.Clouds},
	}
	for i, s := range steps {
		if s.img == nil {
			continue
		}
		tex, err := u.Upload(s.img)
		if err != nil {
			for _, done := range steps[:i] {
				if done.dst.Valid() {
					u.Release(*done.dst)
				}
			}
			return BaseTextures{}, fmt.Errorf("upload %s map: %w", s.name, err)
		}
		*s.dst = tex
	}
	return out, nil
}

// ReleaseBase frees the base textures
func ReleaseBase(u TextureUploader, base BaseTextures) {
	for _, t := range []Texture{base.Diffuse, base.Bump, base.Specular, base.Clouds} {
		if t.Valid() {
			u.Release(t)
		}
	}
}
