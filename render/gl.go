package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// program owns one linked shader program and the location of its MVP
// uniform.
type program struct {
	id  uint32
	mvp int32
}

// newProgram compiles and links a vertex and fragment shader pair. The
// shader objects are deleted once linked; on failure everything acquired
// is released before returning.
func newProgram(vertexSrc, fragmentSrc string) (program, error) {
	vertex, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return program{}, err
	}
	fragment, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertex)
		return program{}, err
	}

	id := gl.CreateProgram()
	gl.AttachShader(id, vertex)
	gl.AttachShader(id, fragment)
	gl.LinkProgram(id)
	gl.DeleteShader(vertex)
	gl.DeleteShader(fragment)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		infoLog := programInfoLog(id)
		gl.DeleteProgram(id)
		return program{}, errors.Errorf("cannot link shader program: %s", infoLog)
	}
	return program{id: id, mvp: gl.GetUniformLocation(id, gl.Str("MVP\x00"))}, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength)+1)
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		gl.DeleteShader(shader)
		return 0, errors.Errorf("cannot compile shader: %s", strings.TrimRight(infoLog, "\x00"))
	}
	return shader, nil
}

func programInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
	infoLog := strings.Repeat("\x00", int(logLength)+1)
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(infoLog))
	return strings.TrimRight(infoLog, "\x00")
}

// use binds the program and uploads the MVP for this draw.
func (p *program) use(mvp mgl32.Mat4) {
	gl.UseProgram(p.id)
	gl.UniformMatrix4fv(p.mvp, 1, false, &mvp[0])
}

// release deletes the program. Safe on the zero value and when called
// again.
func (p *program) release() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

const floatSize = 4

// mesh owns one vertex array with its buffers and remembers how many
// vertices to draw.
type mesh struct {
	vao   uint32
	vbos  []uint32
	count int32
}

// newLineMesh uploads fixed line geometry once. Vertices are xyz triples,
// or xyzrgb when interleavedColor is set.
func newLineMesh(vertices []float32, interleavedColor bool) mesh {
	m := mesh{vbos: make([]uint32, 1)}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbos[0])

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbos[0])
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*floatSize, gl.Ptr(vertices), gl.STATIC_DRAW)

	if interleavedColor {
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*floatSize, 0)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*floatSize, 3*floatSize)
		gl.EnableVertexAttribArray(1)
		m.count = int32(len(vertices) / 6)
	} else {
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*floatSize, 0)
		gl.EnableVertexAttribArray(0)
		m.count = int32(len(vertices) / 3)
	}
	gl.BindVertexArray(0)
	return m
}

// newPointMesh prepares an empty dynamic mesh with separate position and
// color buffers, refilled every time the store snapshot changes.
func newPointMesh() mesh {
	m := mesh{vbos: make([]uint32, 2)}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(2, &m.vbos[0])

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbos[0])
	gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*floatSize, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbos[1])
	gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 3*floatSize, 0)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
	return m
}

// uploadPoints replaces both dynamic buffers with a fresh snapshot. The
// old storage is orphaned rather than updated in place, so a draw still in
// flight keeps its data.
func (m *mesh) uploadPoints(positions, colors []float32) {
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbos[0])
	if len(positions) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, len(positions)*floatSize, gl.Ptr(positions), gl.DYNAMIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbos[1])
	if len(colors) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, len(colors)*floatSize, gl.Ptr(colors), gl.DYNAMIC_DRAW)
	}
	gl.BindVertexArray(0)
	m.count = int32(len(positions) / 3)
}

// draw issues the mesh with the given primitive mode.
func (m *mesh) draw(mode uint32) {
	if m.count == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(mode, 0, m.count)
	gl.BindVertexArray(0)
}

// release deletes the vertex array and buffers. Safe on the zero value and
// when called again.
func (m *mesh) release() {
	if len(m.vbos) > 0 && m.vbos[0] != 0 {
		gl.DeleteBuffers(int32(len(m.vbos)), &m.vbos[0])
		for i := range m.vbos {
			m.vbos[i] = 0
		}
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	m.count = 0
}

// glErrorString names the error enums the draw path can realistically
// produce.
func glErrorString(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("unknown OpenGL error 0x%04X", code)
	}
}
