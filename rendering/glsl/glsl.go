// Package glsl holds the shader sources shared by the render backends.
// Sources carry no #version line; Source prepends the one a backend needs.
// Flags and counts are float uniforms so backends that only set float
// uniforms can drive them.
package glsl

// GLSL version lines per backend
const (
	Version410 = "#version 410 core"
	Version330 = "#version 330"
)

// Source prepends a version line to a shader body
func Source(version, body string) string {
	return version + "\n" + body
}

// SphereVertex transforms the interleaved sphere mesh. Attribute names
// follow the GL backend layout.
const SphereVertex = `
layout (location = 0) in vec3 position;
layout (location = 1) in vec3 normal;
layout (location = 2) in vec2 texCoord;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUv;

void main() {
    vec4 world = model * vec4(position, 1.0);
    vWorldPos = world.xyz;
    vNormal = normalize(mat3(model) * normal);
    vUv = texCoord;
    gl_Position = projection * view * world;
}
`

// RaylibSphereVertex is SphereVertex with raylib's default attribute and
// matrix names.
const RaylibSphereVertex = `
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;

uniform mat4 mvp;
uniform mat4 matModel;
uniform mat4 matNormal;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUv;

void main() {
    vWorldPos = vec3(matModel * vec4(vertexPosition, 1.0));
    vNormal = normalize(vec3(matNormal * vec4(vertexNormal, 0.0)));
    vUv = vertexTexCoord;
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

// lighting is shared phong code. Directional lights (type 1) carry the
// vector toward the light in lightPos.
const lighting = `
#define MAX_LIGHTS 4

uniform float lightCount;
uniform float lightType[MAX_LIGHTS];
uniform vec3 lightPos[MAX_LIGHTS];
uniform vec3 lightColor[MAX_LIGHTS];
uniform vec3 ambientLight;
uniform vec3 cameraPos;

vec3 lightDir(int i, vec3 p) {
    if (lightType[i] > 0.5) {
        return normalize(lightPos[i]);
    }
    return normalize(lightPos[i] - p);
}

vec3 diffuseLight(vec3 n, vec3 p) {
    vec3 sum = ambientLight;
    for (int i = 0; i < MAX_LIGHTS; i++) {
        if (float(i) >= lightCount) {
            break;
        }
        sum += lightColor[i] * max(dot(n, lightDir(i, p)), 0.0);
    }
    return sum;
}

vec3 specularLight(vec3 n, vec3 p, float shininess) {
    vec3 v = normalize(cameraPos - p);
    vec3 sum = vec3(0.0);
    for (int i = 0; i < MAX_LIGHTS; i++) {
        if (float(i) >= lightCount) {
            break;
        }
        vec3 h = normalize(lightDir(i, p) + v);
        sum += lightColor[i] * pow(max(dot(n, h), 0.0), shininess);
    }
    return sum;
}
`

// GlobeFragment is the phong globe surface with bump, specular and emissive
// maps. The emissive map carries the climate overlay.
const GlobeFragment = `
in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUv;

out vec4 outColor;

uniform sampler2D diffuseMap;
uniform sampler2D bumpMap;
uniform sampler2D specularMap;
uniform sampler2D emissiveMap;

uniform float hasDiffuse;
uniform float hasBump;
uniform float hasSpecular;
uniform float hasEmissive;

uniform float bumpScale;
uniform vec3 specularTint;
uniform float shininess;
uniform vec3 emissiveColor;
uniform float emissiveIntensity;
` + lighting + `
vec2 dHdxy() {
    vec2 dSTdx = dFdx(vUv);
    vec2 dSTdy = dFdy(vUv);
    float hll = bumpScale * texture(bumpMap, vUv).x;
    float dBx = bumpScale * texture(bumpMap, vUv + dSTdx).x - hll;
    float dBy = bumpScale * texture(bumpMap, vUv + dSTdy).x - hll;
    return vec2(dBx, dBy);
}

vec3 perturbNormal(vec3 surfPos, vec3 surfNorm, vec2 dh) {
    vec3 sigmaX = dFdx(surfPos);
    vec3 sigmaY = dFdy(surfPos);
    vec3 r1 = cross(sigmaY, surfNorm);
    vec3 r2 = cross(surfNorm, sigmaX);
    float det = dot(sigmaX, r1);
    vec3 grad = sign(det) * (dh.x * r1 + dh.y * r2);
    return normalize(abs(det) * surfNorm - grad);
}

void main() {
    vec3 n = normalize(vNormal);
    if (hasBump > 0.5) {
        n = perturbNormal(vWorldPos, n, dHdxy());
    }

    vec3 base = hasDiffuse > 0.5 ? texture(diffuseMap, vUv).rgb : vec3(1.0);
    float specMask = hasSpecular > 0.5 ? texture(specularMap, vUv).r : 1.0;

    vec3 color = base * diffuseLight(n, vWorldPos);
    color += specularTint * specMask * specularLight(n, vWorldPos, shininess);

    if (hasEmissive > 0.5) {
        color += emissiveColor * emissiveIntensity * texture(emissiveMap, vUv).rgb;
    }

    outColor = vec4(color, 1.0);
}
`

// ShellFragment draws the translucent cloud and atmosphere spheres
const ShellFragment = `
in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUv;

out vec4 outColor;

uniform sampler2D shellMap;
uniform float hasMap;
uniform vec3 shellColor;
uniform float opacity;
uniform float backSide;
` + lighting + `
void main() {
    vec3 n = normalize(vNormal);
    if (backSide > 0.5) {
        n = -n;
    }

    vec4 texel = hasMap > 0.5 ? texture(shellMap, vUv) : vec4(1.0);
    vec3 color = shellColor * texel.rgb * diffuseLight(n, vWorldPos);
    outColor = vec4(color, opacity * texel.a);
}
`

// LegendVertex and LegendFragment draw flat colored quads in screen space
const LegendVertex = `
layout (location = 0) in vec2 position;
layout (location = 1) in vec4 color;

out vec4 fragColor;

uniform mat4 projection;

void main() {
    gl_Position = projection * vec4(position, 0.0, 1.0);
    fragColor = color;
}
`

const LegendFragment = `
in vec4 fragColor;
out vec4 outColor;

void main() {
    outColor = fragColor;
}
`

// CaptionVertex and CaptionFragment draw a text texture in screen space.
// The texture's alpha is the glyph coverage.
const CaptionVertex = `
layout (location = 0) in vec2 position;
layout (location = 1) in vec2 texCoord;

out vec2 fragTexCoord;

uniform mat4 projection;

void main() {
    gl_Position = projection * vec4(position, 0.0, 1.0);
    fragTexCoord = texCoord;
}
`

const CaptionFragment = `
in vec2 fragTexCoord;
out vec4 outColor;

uniform sampler2D fontTexture;
uniform vec4 textColor;

void main() {
    float alpha = texture(fontTexture, fragTexCoord).a;
    outColor = vec4(textColor.rgb, textColor.a * alpha);
}
`
