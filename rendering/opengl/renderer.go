package opengl

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"climateglobe/rendering"
	"climateglobe/rendering/opengl/overlay"
	"climateglobe/rendering/opengl/shaders"
)

// Options configures the GL globe window
type Options struct {
	Width, Height int
	Title         string
	VSync         bool
	Segments      int // sphere tessellation, both directions
	ShowLegend    bool

	Camera *rendering.Camera
	Input  rendering.Interaction
	Logger *slog.Logger
}

// GlobeRenderer draws the globe, its shells and the legend with OpenGL 4.1
type GlobeRenderer struct {
	window *glfw.Window
	logger *slog.Logger

	globeProgram  uint32
	shellProgram  uint32
	globeUniforms *shaders.Uniforms
	shellUniforms *shaders.Uniforms

	sphere   *sphereMesh
	uploader *TextureUploader

	legend     *overlay.Legend
	lastLegend rendering.Legend
	showLegend bool

	camera *rendering.Camera
	input  rendering.Interaction

	width, height int

	// Pointer state
	mouseDown        bool
	dragged          bool
	lastMouseX       float64
	lastMouseY       float64
	globeAngle       float64
	framebufferScale float64
}

// NewGlobeRenderer opens the window and prepares GL resources. Call it from
// the main goroutine.
func NewGlobeRenderer(opts Options) (*GlobeRenderer, error) {
	runtime.LockOSThread()

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

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	window, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()

	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	opts.Logger.Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	r := &GlobeRenderer{
		window:     window,
		logger:     opts.Logger,
		uploader:   &TextureUploader{},
		camera:     opts.Camera,
		input:      opts.Input,
		showLegend: opts.ShowLegend,
	}

	fbw, fbh := window.GetFramebufferSize()
	r.width, r.height = fbw, fbh
	r.framebufferScale = float64(fbw) / float64(max(opts.Width, 1))

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	gl.Viewport(0, 0, int32(fbw), int32(fbh))

	if r.globeProgram, err = shaders.BuildGlobeProgram(); err != nil {
		r.Terminate()
		return nil, fmt.Errorf("failed to compile globe shaders: %w", err)
	}
	if r.shellProgram, err = shaders.BuildShellProgram(); err != nil {
		r.Terminate()
		return nil, fmt.Errorf("failed to compile shell shaders: %w", err)
	}
	r.globeUniforms = shaders.NewUniforms(r.globeProgram)
	r.shellUniforms = shaders.NewUniforms(r.shellProgram)

	r.sphere = newSphereMesh(rendering.GlobeRadius, opts.Segments, opts.Segments)

	legend, err := overlay.NewLegend(fbw, fbh)
	if err != nil {
		// The globe is still usable without the key
		r.logger.Warn("legend disabled", "err", err)
	} else {
		r.legend = legend
	}

	r.installCallbacks()
	return r, nil
}

// Uploader returns the texture uploader bound to this GL context
func (r *GlobeRenderer) Uploader() rendering.TextureUploader {
	return r.uploader
}

// SetInput routes picking and keyboard selection to in. The controller
// needs the uploader first, so it is attached after construction.
func (r *GlobeRenderer) SetInput(in rendering.Interaction) {
	r.input = in
}

// Render draws one frame and swaps buffers
func (r *GlobeRenderer) Render(f rendering.Frame) {
	if code := gl.GetError(); code != gl.NO_ERROR {
		r.logger.Debug("gl error before render", "code", fmt.Sprintf("0x%x", code))
	}
	r.globeAngle = f.GlobeAngle

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	cam := f.Camera
	if cam == nil {
		cam = r.camera
	}
	view := cam.View()
	projection := cam.Projection(float32(r.width) / float32(max(r.height, 1)))
	eye := cam.Position()

	if f.State != nil {
		r.drawGlobe(f, view, projection, eye)
		r.drawShell(f.State.Clouds, f.CloudAngle, f.Lights, view, projection, eye)
		r.drawShell(f.State.Atmosphere, f.GlobeAngle, f.Lights, view, projection, eye)
	}

	if r.showLegend && r.legend != nil {
		if f.Legend != r.lastLegend {
			r.legend.Update(f.Legend)
			r.lastLegend = f.Legend
		}
		r.legend.Render()
	}

	r.window.SwapBuffers()
}

func (r *GlobeRenderer) drawGlobe(f rendering.Frame, view, projection mgl32.Mat4, eye mgl32.Vec3) {
	m := f.State.Globe
	u := r.globeUniforms

	gl.UseProgram(r.globeProgram)
	setCamera(u, rendering.ModelMatrix(f.GlobeAngle, 1), view, projection, eye)
	setLights(u, f.Lights)

	gl.Uniform1f(u.Loc("hasDiffuse"), boolToFloat(bindTexture(0, m.Map, u.Loc("diffuseMap"))))
	gl.Uniform1f(u.Loc("hasBump"), boolToFloat(bindTexture(1, m.BumpMap, u.Loc("bumpMap"))))
	gl.Uniform1f(u.Loc("hasSpecular"), boolToFloat(bindTexture(2, m.SpecularMap, u.Loc("specularMap"))))
	gl.Uniform1f(u.Loc("hasEmissive"), boolToFloat(bindTexture(3, m.EmissiveMap, u.Loc("emissiveMap"))))

	gl.Uniform1f(u.Loc("bumpScale"), m.BumpScale)
	gl.Uniform3fv(u.Loc("specularTint"), 1, &m.Specular[0])
	gl.Uniform1f(u.Loc("shininess"), m.Shininess)
	gl.Uniform3fv(u.Loc("emissiveColor"), 1, &m.Emissive[0])
	gl.Uniform1f(u.Loc("emissiveIntensity"), m.EmissiveIntensity)

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	gl.CullFace(gl.BACK)
	r.sphere.draw()
}

func (r *GlobeRenderer) drawShell(s rendering.ShellMaterial, angle float64, lights rendering.LightingRig, view, projection mgl32.Mat4, eye mgl32.Vec3) {
	if s.Opacity <= 0 {
		return
	}
	u := r.shellUniforms

	gl.UseProgram(r.shellProgram)
	setCamera(u, rendering.ModelMatrix(angle, s.Scale), view, projection, eye)
	setLights(u, lights)

	gl.Uniform1f(u.Loc("hasMap"), boolToFloat(bindTexture(0, s.Map, u.Loc("shellMap"))))
	gl.Uniform3fv(u.Loc("shellColor"), 1, &s.Color[0])
	gl.Uniform1f(u.Loc("opacity"), s.Opacity)
	gl.Uniform1f(u.Loc("backSide"), boolToFloat(s.BackSide))

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(s.DepthWrite)
	if s.BackSide {
		gl.CullFace(gl.FRONT)
	}

	r.sphere.draw()

	gl.CullFace(gl.BACK)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

func setCamera(u *shaders.Uniforms, model, view, projection mgl32.Mat4, eye mgl32.Vec3) {
	gl.UniformMatrix4fv(u.Loc("model"), 1, false, &model[0])
	gl.UniformMatrix4fv(u.Loc("view"), 1, false, &view[0])
	gl.UniformMatrix4fv(u.Loc("projection"), 1, false, &projection[0])
	gl.Uniform3fv(u.Loc("cameraPos"), 1, &eye[0])
}

func setLights(u *shaders.Uniforms, rig rendering.LightingRig) {
	ambient := rig.AmbientColor.Mul(rig.AmbientIntensity)
	gl.Uniform3fv(u.Loc("ambientLight"), 1, &ambient[0])

	n := min(len(rig.Lights), rendering.MaxLights)
	gl.Uniform1f(u.Loc("lightCount"), float32(n))
	for i := 0; i < n; i++ {
		l := rig.Lights[i]
		color := l.Color.Mul(l.Intensity)
		gl.Uniform1f(u.Loc(fmt.Sprintf("lightType[%d]", i)), float32(l.Type))
		gl.Uniform3fv(u.Loc(fmt.Sprintf("lightPos[%d]", i)), 1, &l.Position[0])
		gl.Uniform3fv(u.Loc(fmt.Sprintf("lightColor[%d]", i)), 1, &color[0])
	}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// ShouldClose returns true if the window should close
func (r *GlobeRenderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// Close asks the window to close at the end of the frame
func (r *GlobeRenderer) Close() {
	r.window.SetShouldClose(true)
}

// PollEvents processes pending window events
func (r *GlobeRenderer) PollEvents() {
	glfw.PollEvents()
}

// SetTitle updates the window title, used for the FPS readout
func (r *GlobeRenderer) SetTitle(title string) {
	r.window.SetTitle(title)
}

// Terminate cleans up OpenGL resources
func (r *GlobeRenderer) Terminate() {
	if r.legend != nil {
		r.legend.Release()
	}
	if r.sphere != nil {
		r.sphere.release()
	}
	if r.globeProgram != 0 {
		gl.DeleteProgram(r.globeProgram)
	}
	if r.shellProgram != 0 {
		gl.DeleteProgram(r.shellProgram)
	}
	if r.window != nil {
		r.window.Destroy()
	}
	glfw.Terminate()
}
