package render

// Shader sources for the three draw passes. The window requests a 3.3 core
// context; each program takes the combined model-view-projection as its
// one uniform. Sources are NUL terminated for upload.
const (
	pointVertexShader = `
#version 330 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aColor;

uniform mat4 MVP;

out vec3 vertexColor;

void main() {
	gl_Position = MVP * vec4(aPos, 1.0);
	vertexColor = aColor;
	gl_PointSize = 2.0;
}
` + "\x00"

	pointFragmentShader = `
#version 330 core
in vec3 vertexColor;
out vec4 fragColor;

void main() {
	fragColor = vec4(vertexColor, 1.0);
}
` + "\x00"

	gridVertexShader = `
#version 330 core
layout(location = 0) in vec3 aPos;

uniform mat4 MVP;

void main() {
	gl_Position = MVP * vec4(aPos, 1.0);
}
` + "\x00"

	gridFragmentShader = `
#version 330 core
out vec4 fragColor;

void main() {
	fragColor = vec4(0.5, 0.5, 0.5, 1.0);
}
` + "\x00"

	axesVertexShader = `
#version 330 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aColor;

uniform mat4 MVP;

out vec3 vertexColor;

void main() {
	gl_Position = MVP * vec4(aPos, 1.0);
	vertexColor = aColor;
}
` + "\x00"

	axesFragmentShader = `
#version 330 core
in vec3 vertexColor;
out vec4 fragColor;

void main() {
	fragColor = vec4(vertexColor, 1.0);
}
` + "\x00"
)
