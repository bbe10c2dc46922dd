//go:build raylib

// Package raylib is an alternative globe backend on raylib. It shares the
// mesh, shaders, camera and picking with the OpenGL backend.
package raylib

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"climateglobe/core"
	"climateglobe/rendering"
	"climateglobe/rendering/glsl"
)

// rlgl face culling modes
const (
	cullFaceFront int32 = 0
	cullFaceBack  int32 = 1
)

// Options configures the raylib window
type Options struct {
	Width, Height int
	Title         string
	VSync         bool
	Segments      int
	ShowLegend    bool

	Camera *rendering.Camera
	Input  rendering.Interaction
	Logger *slog.Logger
}

// GlobeRenderer draws the globe scene through raylib
type GlobeRenderer struct {
	logger *slog.Logger
	camera *rendering.Camera
	input  rendering.Interaction

	sphere     rl.Mesh
	globeMat   rl.Material
	shellMat   rl.Material
	globeLocs  map[string]int32
	shellLocs  map[string]int32
	uploader   *TextureUploader
	showLegend bool

	dragging   bool
	dragged    bool
	globeAngle float64
	closing    bool
}

// NewGlobeRenderer opens the raylib window and loads the shaders
func NewGlobeRenderer(opts Options) (*GlobeRenderer, error) {
	if opts.Camera == nil {
		opts.Camera = rendering.NewCamera(rendering.DefaultCameraSettings())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Segments <= 0 {
		opts.Segments = 64
	}
	if opts.Title == "" {
		opts.Title = "Climate Globe"
	}

	flags := uint32(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	if opts.VSync {
		flags |= rl.FlagVsyncHint
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if !rl.IsWindowReady() {
		return nil, errors.New("raylib window failed to open")
	}
	rl.SetExitKey(0)

	r := &GlobeRenderer{
		logger:     opts.Logger,
		camera:     opts.Camera,
		input:      opts.Input,
		uploader:   &TextureUploader{},
		showLegend: opts.ShowLegend,
	}

	globeShader := rl.LoadShaderFromMemory(
		glsl.Source(glsl.Version330, glsl.RaylibSphereVertex),
		glsl.Source(glsl.Version330, glsl.GlobeFragment))
	if !rl.IsShaderValid(globeShader) {
		rl.CloseWindow()
		return nil, errors.New("failed to compile globe shaders")
	}
	shellShader := rl.LoadShaderFromMemory(
		glsl.Source(glsl.Version330, glsl.RaylibSphereVertex),
		glsl.Source(glsl.Version330, glsl.ShellFragment))
	if !rl.IsShaderValid(shellShader) {
		rl.UnloadShader(globeShader)
		rl.CloseWindow()
		return nil, errors.New("failed to compile shell shaders")
	}

	// raylib binds material maps to the sampler locations registered here
	globeShader.UpdateLocation(rl.ShaderLocMapDiffuse, rl.GetShaderLocation(globeShader, "diffuseMap"))
	globeShader.UpdateLocation(rl.ShaderLocMapSpecular, rl.GetShaderLocation(globeShader, "specularMap"))
	globeShader.UpdateLocation(rl.ShaderLocMapHeight, rl.GetShaderLocation(globeShader, "bumpMap"))
	globeShader.UpdateLocation(rl.ShaderLocMapEmission, rl.GetShaderLocation(globeShader, "emissiveMap"))
	shellShader.UpdateLocation(rl.ShaderLocMapDiffuse, rl.GetShaderLocation(shellShader, "shellMap"))

	r.globeMat = rl.LoadMaterialDefault()
	r.globeMat.Shader = globeShader
	r.shellMat = rl.LoadMaterialDefault()
	r.shellMat.Shader = shellShader
	r.globeLocs = make(map[string]int32)
	r.shellLocs = make(map[string]int32)

	r.sphere = buildMesh(core.GenerateSphereData(rendering.GlobeRadius, opts.Segments, opts.Segments))
	rl.UploadMesh(&r.sphere, false)

	return r, nil
}

// buildMesh converts the interleaved sphere into raylib's split arrays.
// raylib indexes with uint16, which a 64x64 sphere fits comfortably.
func buildMesh(data core.SphereMesh) rl.Mesh {
	n := data.VertexCount()
	positions := make([]float32, 0, n*3)
	normals := make([]float32, 0, n*3)
	uvs := make([]float32, 0, n*2)
	for i := 0; i < n; i++ {
		v := data.Vertices[i*core.SphereVertexStride : (i+1)*core.SphereVertexStride]
		positions = append(positions, v[0], v[1], v[2])
		normals = append(normals, v[3], v[4], v[5])
		uvs = append(uvs, v[6], v[7])
	}
	indices := make([]uint16, len(data.Indices))
	for i, idx := range data.Indices {
		indices[i] = uint16(idx)
	}
	return rl.Mesh{
		VertexCount:   int32(n),
		TriangleCount: int32(len(indices) / 3),
		Vertices:      &positions[0],
		Normals:       &normals[0],
		Texcoords:     &uvs[0],
		Indices:       &indices[0],
	}
}

// Uploader returns the texture uploader for this window
func (r *GlobeRenderer) Uploader() rendering.TextureUploader {
	return r.uploader
}

// SetInput routes picking and keyboard selection to in. The controller
// needs the uploader first, so it is attached after construction.
func (r *GlobeRenderer) SetInput(in rendering.Interaction) {
	r.input = in
}

// PollEvents reads raylib input and forwards it to the camera and the
// selection controller
func (r *GlobeRenderer) PollEvents() {
	if rl.WindowShouldClose() || rl.IsKeyPressed(rl.KeyEscape) {
		r.closing = true
	}

	if rl.IsKeyPressed(rl.KeyTab) && r.input != nil {
		if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
			r.input.CycleRegion(-1)
		} else {
			r.input.CycleRegion(1)
		}
	}
	if rl.IsKeyPressed(rl.KeyG) && r.input != nil {
		r.input.SelectRegion(core.Global)
	}
	if rl.IsKeyPressed(rl.KeyA) {
		r.camera.AutoRotate = !r.camera.AutoRotate
		r.logger.Info("auto-rotate", "enabled", r.camera.AutoRotate)
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		r.showLegend = !r.showLegend
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		r.camera.Zoom(float64(wheel))
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		r.dragging = true
		r.dragged = false
	}
	if r.dragging && rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		if d.X != 0 || d.Y != 0 {
			r.dragged = true
			r.camera.Drag(float64(d.X), float64(d.Y))
		}
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		r.dragging = false
		if !r.dragged {
			r.pick()
		}
	}
}

func (r *GlobeRenderer) pick() {
	if r.input == nil {
		return
	}
	pos := rl.GetMousePosition()
	hit, ok := rendering.PickRegion(r.camera, float64(pos.X), float64(pos.Y), rl.GetScreenWidth(), rl.GetScreenHeight(), r.globeAngle)
	if !ok {
		return
	}
	r.logger.Debug("picked", "region", hit.Region, "lat", hit.Geo.Lat, "lon", hit.Geo.Lon)
	r.input.SelectRegion(hit.Region)
}

// Render draws one frame
func (r *GlobeRenderer) Render(f rendering.Frame) {
	r.globeAngle = f.GlobeAngle
	cam := f.Camera
	if cam == nil {
		cam = r.camera
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	eye := cam.Position()
	rl.BeginMode3D(rl.Camera3D{
		Position:   rl.NewVector3(eye[0], eye[1], eye[2]),
		Target:     rl.NewVector3(0, 0, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       float32(cam.FOV()),
		Projection: rl.CameraPerspective,
	})

	if f.State != nil {
		r.drawGlobe(f, eye)
		r.drawShell(f.State.Clouds, f.CloudAngle, f.Lights, eye)
		r.drawShell(f.State.Atmosphere, f.GlobeAngle, f.Lights, eye)
	}

	rl.EndMode3D()

	if r.showLegend {
		drawLegend(f.Legend)
	}
	rl.EndDrawing()
}

func (r *GlobeRenderer) drawGlobe(f rendering.Frame, eye mgl32.Vec3) {
	m := f.State.Globe
	sh := r.globeMat.Shader

	rl.SetMaterialTexture(&r.globeMat, rl.MapDiffuse, rlTexture(m.Map))
	rl.SetMaterialTexture(&r.globeMat, rl.MapSpecular, rlTexture(m.SpecularMap))
	rl.SetMaterialTexture(&r.globeMat, rl.MapHeight, rlTexture(m.BumpMap))
	rl.SetMaterialTexture(&r.globeMat, rl.MapEmission, rlTexture(m.EmissiveMap))

	set := func(name string, v []float32, typ rl.ShaderUniformDataType) {
		rl.SetShaderValue(sh, loc(r.globeLocs, sh, name), v, typ)
	}
	set("hasDiffuse", []float32{flag(m.Map.Valid())}, rl.ShaderUniformFloat)
	set("hasBump", []float32{flag(m.BumpMap.Valid())}, rl.ShaderUniformFloat)
	set("hasSpecular", []float32{flag(m.SpecularMap.Valid())}, rl.ShaderUniformFloat)
	set("hasEmissive", []float32{flag(m.EmissiveMap.Valid())}, rl.ShaderUniformFloat)
	set("bumpScale", []float32{m.BumpScale}, rl.ShaderUniformFloat)
	set("specularTint", m.Specular[:], rl.ShaderUniformVec3)
	set("shininess", []float32{m.Shininess}, rl.ShaderUniformFloat)
	set("emissiveColor", m.Emissive[:], rl.ShaderUniformVec3)
	set("emissiveIntensity", []float32{m.EmissiveIntensity}, rl.ShaderUniformFloat)
	setLights(sh, r.globeLocs, f.Lights, eye)

	rl.DrawMesh(r.sphere, r.globeMat, toMatrix(rendering.ModelMatrix(f.GlobeAngle, 1)))
}

func (r *GlobeRenderer) drawShell(s rendering.ShellMaterial, angle float64, lights rendering.LightingRig, eye mgl32.Vec3) {
	if s.Opacity <= 0 {
		return
	}
	sh := r.shellMat.Shader
	rl.SetMaterialTexture(&r.shellMat, rl.MapDiffuse, rlTexture(s.Map))

	set := func(name string, v []float32, typ rl.ShaderUniformDataType) {
		rl.SetShaderValue(sh, loc(r.shellLocs, sh, name), v, typ)
	}
	set("hasMap", []float32{flag(s.Map.Valid())}, rl.ShaderUniformFloat)
	set("shellColor", s.Color[:], rl.ShaderUniformVec3)
	set("opacity", []float32{s.Opacity}, rl.ShaderUniformFloat)
	set("backSide", []float32{flag(s.BackSide)}, rl.ShaderUniformFloat)
	setLights(sh, r.shellLocs, lights, eye)

	rl.BeginBlendMode(rl.BlendAlpha)
	if !s.DepthWrite {
		rl.DisableDepthMask()
	}
	if s.BackSide {
		rl.SetCullFace(cullFaceFront)
	}

	rl.DrawMesh(r.sphere, r.shellMat, toMatrix(rendering.ModelMatrix(angle, s.Scale)))

	rl.SetCullFace(cullFaceBack)
	rl.EnableDepthMask()
	rl.EndBlendMode()
}

func setLights(sh rl.Shader, cache map[string]int32, rig rendering.LightingRig, eye mgl32.Vec3) {
	ambient := rig.AmbientColor.Mul(rig.AmbientIntensity)
	rl.SetShaderValue(sh, loc(cache, sh, "ambientLight"), ambient[:], rl.ShaderUniformVec3)
	rl.SetShaderValue(sh, loc(cache, sh, "cameraPos"), eye[:], rl.ShaderUniformVec3)

	n := min(len(rig.Lights), rendering.MaxLights)
	rl.SetShaderValue(sh, loc(cache, sh, "lightCount"), []float32{float32(n)}, rl.ShaderUniformFloat)
	for i := 0; i < n; i++ {
		l := rig.Lights[i]
		color := l.Color.Mul(l.Intensity)
		rl.SetShaderValue(sh, loc(cache, sh, fmt.Sprintf("lightType[%d]", i)), []float32{float32(l.Type)}, rl.ShaderUniformFloat)
		rl.SetShaderValue(sh, loc(cache, sh, fmt.Sprintf("lightPos[%d]", i)), l.Position[:], rl.ShaderUniformVec3)
		rl.SetShaderValue(sh, loc(cache, sh, fmt.Sprintf("lightColor[%d]", i)), color[:], rl.ShaderUniformVec3)
	}
}

func loc(cache map[string]int32, sh rl.Shader, name string) int32 {
	if l, ok := cache[name]; ok {
		return l
	}
	l := rl.GetShaderLocation(sh, name)
	cache[name] = l
	return l
}

// toMatrix converts a column-major mathgl matrix into raylib's layout
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.NewMatrix(
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	)
}

func rlTexture(t rendering.Texture) rl.Texture2D {
	return rl.Texture2D{ID: t.ID, Width: int32(t.Width), Height: int32(t.Height), Mipmaps: 1, Format: rl.UncompressedR8g8b8a8}
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// ShouldClose reports whether the window was asked to close
func (r *GlobeRenderer) ShouldClose() bool {
	return r.closing
}

// Close asks the window to close at the end of the frame
func (r *GlobeRenderer) Close() {
	r.closing = true
}

// SetTitle updates the window title
func (r *GlobeRenderer) SetTitle(title string) {
	rl.SetWindowTitle(title)
}

// Terminate releases GPU resources and closes the window
func (r *GlobeRenderer) Terminate() {
	rl.UnloadMesh(&r.sphere)
	rl.UnloadShader(r.globeMat.Shader)
	rl.UnloadShader(r.shellMat.Shader)
	rl.CloseWindow()
}

// TextureUploader uploads RGBA buffers with raylib
type TextureUploader struct{}

// Upload converts img into a mipmapped raylib texture
func (TextureUploader) Upload(img *image.RGBA) (rendering.Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return rendering.Texture{}, errors.New("empty image")
	}
	rimg := rl.NewImageFromImage(img)
	defer rl.UnloadImage(rimg)

	tex := rl.LoadTextureFromImage(rimg)
	if !rl.IsTextureValid(tex) {
		return rendering.Texture{}, fmt.Errorf("load texture %dx%d failed", img.Bounds().Dx(), img.Bounds().Dy())
	}
	rl.GenTextureMipmaps(&tex)
	rl.SetTextureFilter(tex, rl.FilterTrilinear)
	return rendering.Texture{ID: tex.ID, Width: int(tex.Width), Height: int(tex.Height)}, nil
}

// Release unloads the texture
func (TextureUploader) Release(t rendering.Texture) {
	if t.Valid() {
		rl.UnloadTexture(rlTexture(t))
	}
}
