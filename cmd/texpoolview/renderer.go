// The renderer follows the OpenGL 3 renderer of the imgui-go examples
// (github.com/inkyblackness/imgui-go-examples) in the form used by the sdlimgui
// package of Gopher2600 (github.com/jetsetilly/gopher2600, GPL-3.0-or-later).

package main

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/inkyblackness/imgui-go/v4"
)

const vertexShader = `#version 150
uniform mat4 ProjMtx;
in vec2 Position;
in vec2 UV;
in vec4 Color;
out vec2 Frag_UV;
out vec4 Frag_Color;
void main() {
	Frag_UV = UV;
	Frag_Color = Color;
	gl_Position = ProjMtx * vec4(Position.xy, 0, 1);
}
`

const fragmentShader = `#version 150
uniform sampler2D Texture;
in vec2 Frag_UV;
in vec4 Frag_Color;
out vec4 Out_Color;
void main() {
	Out_Color = Frag_Color * texture(Texture, Frag_UV.st);
}
`

// renderer draws imgui draw data with OpenGL 3.2. Texture ids of draw commands are
// GL texture names, so pool handles of the GL backend can be drawn directly.
type renderer struct {
	program     uint32
	projMtx     int32
	texture     int32
	position    int32
	uv          int32
	color       int32
	fontTexture uint32

	vboHandle      uint32
	elementsHandle uint32
}

// newRenderer compiles the shader program and uploads the font atlas of the io.
// The GL function pointers have to be initialised already.
func newRenderer(io imgui.IO) (*renderer, error) {
	rnd := &renderer{}
	if err := rnd.createProgram(); err != nil {
		return nil, err
	}

	atlas := io.Fonts()
	atlas.AddFontDefault()
	image := atlas.TextureDataRGBA32()
	gl.GenTextures(1, &rnd.fontTexture)
	gl.BindTexture(gl.TEXTURE_2D, rnd.fontTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(image.Width), int32(image.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, image.Pixels)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	atlas.SetTextureID(imgui.TextureID(rnd.fontTexture))

	gl.GenBuffers(1, &rnd.vboHandle)
	gl.GenBuffers(1, &rnd.elementsHandle)
	return rnd, nil
}

func (rnd *renderer) createProgram() error {
	vertHandle, err := compileShader(gl.VERTEX_SHADER, vertexShader)
	if err != nil {
		return fmt.Errorf("compiling vertex shader: %w", err)
	}
	defer gl.DeleteShader(vertHandle)
	fragHandle, err := compileShader(gl.FRAGMENT_SHADER, fragmentShader)
	if err != nil {
		return fmt.Errorf("compiling fragment shader: %w", err)
	}
	defer gl.DeleteShader(fragHandle)

	rnd.program = gl.CreateProgram()
	gl.AttachShader(rnd.program, vertHandle)
	gl.AttachShader(rnd.program, fragHandle)
	gl.LinkProgram(rnd.program)

	var linked int32
	gl.GetProgramiv(rnd.program, gl.LINK_STATUS, &linked)
	if linked == gl.FALSE {
		gl.DeleteProgram(rnd.program)
		rnd.program = 0
		return fmt.Errorf("linking shader program failed")
	}

	rnd.projMtx = gl.GetUniformLocation(rnd.program, gl.Str("ProjMtx\x00"))
	rnd.texture = gl.GetUniformLocation(rnd.program, gl.Str("Texture\x00"))
	rnd.position = gl.GetAttribLocation(rnd.program, gl.Str("Position\x00"))
	rnd.uv = gl.GetAttribLocation(rnd.program, gl.Str("UV\x00"))
	rnd.color = gl.GetAttribLocation(rnd.program, gl.Str("Color\x00"))
	return nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	handle := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csource, nil)
	free()
	gl.CompileShader(handle)

	var compiled int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &compiled)
	if compiled != gl.FALSE {
		return handle, nil
	}

	var logLength int32
	gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(log))
	gl.DeleteShader(handle)
	return 0, fmt.Errorf("%s", strings.TrimRight(log, "\x00"))
}

func (rnd *renderer) destroy() {
	if rnd.vboHandle != 0 {
		gl.DeleteBuffers(1, &rnd.vboHandle)
		rnd.vboHandle = 0
	}
	if rnd.elementsHandle != 0 {
		gl.DeleteBuffers(1, &rnd.elementsHandle)
		rnd.elementsHandle = 0
	}
	if rnd.program != 0 {
		gl.DeleteProgram(rnd.program)
		rnd.program = 0
	}
	if rnd.fontTexture != 0 {
		gl.DeleteTextures(1, &rnd.fontTexture)
		imgui.CurrentIO().Fonts().SetTextureID(0)
		rnd.fontTexture = 0
	}
}

// preRender clears the framebuffer.
func (rnd *renderer) preRender() {
	gl.ClearColor(0.1, 0.1, 0.1, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// render translates the imgui draw data to OpenGL draw calls.
func (rnd *renderer) render(displaySize, framebufferSize [2]float32, drawData imgui.DrawData) {
	displayWidth, displayHeight := displaySize[0], displaySize[1]
	fbWidth, fbHeight := framebufferSize[0], framebufferSize[1]
	if fbWidth <= 0 || fbHeight <= 0 {
		return
	}
	drawData.ScaleClipRects(imgui.Vec2{
		X: fbWidth / displayWidth,
		Y: fbHeight / displayHeight,
	})

	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.SCISSOR_TEST)
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))

	proj := [4][4]float32{
		{2.0 / displayWidth, 0.0, 0.0, 0.0},
		{0.0, 2.0 / -displayHeight, 0.0, 0.0},
		{0.0, 0.0, -1.0, 0.0},
		{-1.0, 1.0, 0.0, 1.0},
	}
	gl.UseProgram(rnd.program)
	gl.Uniform1i(rnd.texture, 0)
	gl.UniformMatrix4fv(rnd.projMtx, 1, false, &proj[0][0])
	gl.ActiveTexture(gl.TEXTURE0)

	var vaoHandle uint32
	gl.GenVertexArrays(1, &vaoHandle)
	defer gl.DeleteVertexArrays(1, &vaoHandle)
	gl.BindVertexArray(vaoHandle)
	gl.BindBuffer(gl.ARRAY_BUFFER, rnd.vboHandle)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, rnd.elementsHandle)

	gl.EnableVertexAttribArray(uint32(rnd.position))
	gl.EnableVertexAttribArray(uint32(rnd.uv))
	gl.EnableVertexAttribArray(uint32(rnd.color))
	vertexSize, vertexOffsetPos, vertexOffsetUv, vertexOffsetCol := imgui.VertexBufferLayout()
	gl.VertexAttribPointerWithOffset(uint32(rnd.position), 2, gl.FLOAT, false, int32(vertexSize), uintptr(vertexOffsetPos))
	gl.VertexAttribPointerWithOffset(uint32(rnd.uv), 2, gl.FLOAT, false, int32(vertexSize), uintptr(vertexOffsetUv))
	gl.VertexAttribPointerWithOffset(uint32(rnd.color), 4, gl.UNSIGNED_BYTE, true, int32(vertexSize), uintptr(vertexOffsetCol))

	indexSize := imgui.IndexBufferLayout()
	drawType := uint32(gl.UNSIGNED_SHORT)
	if indexSize == 4 {
		drawType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		gl.BufferData(gl.ARRAY_BUFFER, vertexBufferSize, vertexBuffer, gl.STREAM_DRAW)
		indexBuffer, indexBufferSize := list.IndexBuffer()
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indexBufferSize, indexBuffer, gl.STREAM_DRAW)

		var indexBufferOffset uintptr
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else {
				gl.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
				clipRect := cmd.ClipRect()
				gl.Scissor(int32(clipRect.X), int32(fbHeight)-int32(clipRect.W), int32(clipRect.Z-clipRect.X), int32(clipRect.W-clipRect.Y))
				gl.DrawElementsWithOffset(gl.TRIANGLES, int32(cmd.ElementCount()), drawType, indexBufferOffset)
			}
			indexBufferOffset += uintptr(cmd.ElementCount() * indexSize)
		}
	}

	gl.Disable(gl.SCISSOR_TEST)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}
