package renderer

// ── Shared vertex stages ─────────────────────────────────────────────────────

// quadVertSrc passes the clip-space quad through.
const quadVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aUV;
out vec2 fragUV;
void main() {
    fragUV      = aUV;
    gl_Position = vec4(aPos.xy, 0.0, 1.0);
}
`

// cubeVertSrc renders the unit cube seen from its centre. Used by the
// environment chain, one draw per face.
const cubeVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 view;
uniform mat4 projection;
out vec3 localPos;
void main() {
    localPos    = aPos;
    gl_Position = projection * view * vec4(aPos, 1.0);
}
`

// ── Geometry pass ────────────────────────────────────────────────────────────

const geometryVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aUV;
layout(location = 2) in vec3 aNormal;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 fragWorldPos;
out vec3 fragNormal;
out vec2 fragUV;

void main() {
    vec4 world   = model * vec4(aPos, 1.0);
    fragWorldPos = world.xyz;
    fragNormal   = mat3(transpose(inverse(model))) * aNormal;
    fragUV       = aUV;
    gl_Position  = projection * view * world;
}
`

// geometryFragSrc writes the six G-buffer planes. Position.w carries the
// material AO; a zero normal marks an empty pixel.
const geometryFragSrc = `
#version 410 core
in vec3 fragWorldPos;
in vec3 fragNormal;
in vec2 fragUV;

layout(location = 0) out vec4  gPosition;
layout(location = 1) out vec3  gNormal;
layout(location = 2) out vec3  gAlbedo;
layout(location = 3) out vec3  gEmission;
layout(location = 4) out float gRoughness;
layout(location = 5) out float gMetallic;

uniform vec3  albedo;
uniform vec3  emission;
uniform float roughness;
uniform float metallic;
uniform float ao;

void main() {
    gPosition  = vec4(fragWorldPos, ao);
    gNormal    = normalize(fragNormal);
    gAlbedo    = albedo;
    gEmission  = emission;
    gRoughness = roughness;
    gMetallic  = metallic;
}
`

// ── Shadows ──────────────────────────────────────────────────────────────────

const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 model;
uniform mat4 lightSpace;
void main() {
    gl_Position = lightSpace * model * vec4(aPos, 1.0);
}
`

const depthFragSrc = `
#version 410 core
void main() {}
`

const cubeDepthVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;
out vec3 fragWorldPos;
void main() {
    vec4 world   = model * vec4(aPos, 1.0);
    fragWorldPos = world.xyz;
    gl_Position  = projection * view * world;
}
`

// cubeDepthFragSrc stores the normalised distance to the light.
const cubeDepthFragSrc = `
#version 410 core
in vec3 fragWorldPos;
uniform vec3  lightPos;
uniform float far;
void main() {
    gl_FragDepth = length(fragWorldPos - lightPos) / far;
}
`

// ── Image-based lighting ─────────────────────────────────────────────────────

// equirectFragSrc maps a direction to equirectangular UV. v = 0 is the top
// image row, which is the first row uploaded.
const equirectFragSrc = `
#version 410 core
in  vec3 localPos;
out vec4 outColor;

uniform sampler2D equirect;

const float INV_PI  = 0.31830988618;
const float INV_2PI = 0.15915494309;

void main() {
    vec3 d  = normalize(localPos);
    vec2 uv = vec2(atan(d.z, d.x) * INV_2PI + 0.5, 0.5 - asin(d.y) * INV_PI);
    outColor = vec4(texture(equirect, uv).rgb, 1.0);
}
`

// irradianceFragSrc convolves the hemisphere around each direction with a
// fixed step.
const irradianceFragSrc = `
#version 410 core
in  vec3 localPos;
out vec4 outColor;

uniform samplerCube environment;

const float PI = 3.14159265359;

void main() {
    vec3 N     = normalize(localPos);
    vec3 up    = abs(N.y) < 0.999 ? vec3(0.0, 1.0, 0.0) : vec3(0.0, 0.0, 1.0);
    vec3 right = normalize(cross(up, N));
    up         = normalize(cross(N, right));

    const float delta = 0.025;
    vec3  irradiance = vec3(0.0);
    float samples    = 0.0;
    for (float phi = 0.0; phi < 2.0 * PI; phi += delta) {
        for (float theta = 0.0; theta < 0.5 * PI; theta += delta) {
            vec3 t = vec3(sin(theta) * cos(phi), sin(theta) * sin(phi), cos(theta));
            vec3 s = t.x * right + t.y * up + t.z * N;
            irradiance += texture(environment, s).rgb * cos(theta) * sin(theta);
            samples++;
        }
    }
    outColor = vec4(PI * irradiance / samples, 1.0);
}
`

// ggxCommonSrc is shared by the prefilter and BRDF programs.
const ggxCommonSrc = `
const float PI = 3.14159265359;

float RadicalInverse(uint bits) {
    bits = (bits << 16u) | (bits >> 16u);
    bits = ((bits & 0x55555555u) << 1u) | ((bits & 0xAAAAAAAAu) >> 1u);
    bits = ((bits & 0x33333333u) << 2u) | ((bits & 0xCCCCCCCCu) >> 2u);
    bits = ((bits & 0x0F0F0F0Fu) << 4u) | ((bits & 0xF0F0F0F0u) >> 4u);
    bits = ((bits & 0x00FF00FFu) << 8u) | ((bits & 0xFF00FF00u) >> 8u);
    return float(bits) * 2.3283064365386963e-10;
}

vec2 Hammersley(uint i, uint n) {
    return vec2(float(i) / float(n), RadicalInverse(i));
}

vec3 ImportanceSampleGGX(vec2 Xi, vec3 N, float roughness) {
    float a        = roughness * roughness;
    float phi      = 2.0 * PI * Xi.x;
    float cosTheta = sqrt((1.0 - Xi.y) / (1.0 + (a * a - 1.0) * Xi.y));
    float sinTheta = sqrt(1.0 - cosTheta * cosTheta);
    vec3  H        = vec3(cos(phi) * sinTheta, sin(phi) * sinTheta, cosTheta);

    vec3 up      = abs(N.z) < 0.999 ? vec3(0.0, 0.0, 1.0) : vec3(1.0, 0.0, 0.0);
    vec3 tangent = normalize(cross(up, N));
    vec3 bitan   = cross(N, tangent);
    return normalize(tangent * H.x + bitan * H.y + N * H.z);
}

float DistributionGGX(float NdH, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float d  = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}
`

const prefilterFragSrc = `
#version 410 core
in  vec3 localPos;
out vec4 outColor;

uniform samplerCube environment;
uniform float       roughness;
uniform float       resolution;
` + ggxCommonSrc + `
const uint SAMPLE_COUNT = 1024u;

void main() {
    vec3 N = normalize(localPos);
    vec3 V = N;

    vec3  color  = vec3(0.0);
    float weight = 0.0;
    for (uint i = 0u; i < SAMPLE_COUNT; ++i) {
        vec3  H   = ImportanceSampleGGX(Hammersley(i, SAMPLE_COUNT), N, roughness);
        vec3  L   = normalize(2.0 * dot(V, H) * H - V);
        float NdL = max(dot(N, L), 0.0);
        if (NdL > 0.0) {
            // sample a coarser environment mip where the lobe is sparse
            float NdH   = max(dot(N, H), 0.0);
            float pdf   = DistributionGGX(NdH, roughness) / 4.0 + 0.0001;
            float saTex = 4.0 * PI / (6.0 * resolution * resolution);
            float saSmp = 1.0 / (float(SAMPLE_COUNT) * pdf + 0.0001);
            float mip   = roughness == 0.0 ? 0.0 : 0.5 * log2(saSmp / saTex);
            color  += textureLod(environment, L, mip).rgb * NdL;
            weight += NdL;
        }
    }
    outColor = vec4(color / weight, 1.0);
}
`

const brdfFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec2 outColor;
` + ggxCommonSrc + `
const uint SAMPLE_COUNT = 1024u;

float GeometrySchlickIBL(float c, float roughness) {
    float k = roughness * roughness / 2.0;
    return c / (c * (1.0 - k) + k);
}

void main() {
    float NdV       = fragUV.x;
    float roughness = fragUV.y;
    vec3  V = vec3(sqrt(1.0 - NdV * NdV), 0.0, NdV);
    vec3  N = vec3(0.0, 0.0, 1.0);

    float A = 0.0;
    float B = 0.0;
    for (uint i = 0u; i < SAMPLE_COUNT; ++i) {
        vec3  H   = ImportanceSampleGGX(Hammersley(i, SAMPLE_COUNT), N, roughness);
        vec3  L   = normalize(2.0 * dot(V, H) * H - V);
        float NdL = max(L.z, 0.0);
        float NdH = max(H.z, 0.0);
        float VdH = max(dot(V, H), 0.0);
        if (NdL > 0.0) {
            float G     = GeometrySchlickIBL(NdV, roughness) * GeometrySchlickIBL(NdL, roughness);
            float G_Vis = G * VdH / (NdH * NdV);
            float Fc    = pow(1.0 - VdH, 5.0);
            A += (1.0 - Fc) * G_Vis;
            B += Fc * G_Vis;
        }
    }
    outColor = vec2(A, B) / float(SAMPLE_COUNT);
}
`

// ── Lighting ─────────────────────────────────────────────────────────────────

const lightingFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

#define MAX_LIGHTS 6
#define DIRECTIONAL 0
#define SPOT        1
#define POINT       2

struct Light {
    int   type;
    vec3  color;
    vec3  position;
    vec3  direction;
    float cutOff;
    float far;
    mat4  lightSpace;
};

uniform Light lights[MAX_LIGHTS];
uniform int   lightCount;
uniform vec3  cameraPos;
uniform float shadowBias;
uniform float prefilterLevels;

uniform sampler2D   shadowMaps[MAX_LIGHTS];
uniform samplerCube shadowCubes[MAX_LIGHTS];

uniform sampler2D gPosition;
uniform sampler2D gNormal;
uniform sampler2D gAlbedo;
uniform sampler2D gEmission;
uniform sampler2D gRoughness;
uniform sampler2D gMetallic;

uniform samplerCube irradianceMap;
uniform samplerCube prefilterMap;
uniform sampler2D   brdfLUT;

const float PI = 3.14159265359;

// ── Shadow ───────────────────────────────────────────────────────────────────

// Returns 1 when the point is occluded. Points outside the light volume are lit.
float planarShadow(int i, vec3 P) {
    vec4 ls = lights[i].lightSpace * vec4(P, 1.0);
    vec3 p  = ls.xyz / ls.w * 0.5 + 0.5;
    if (p.z > 1.0 || any(lessThan(p.xy, vec2(0.0))) || any(greaterThan(p.xy, vec2(1.0)))) {
        return 0.0;
    }
    float closest = texture(shadowMaps[i], p.xy).r;
    return p.z - shadowBias > closest ? 1.0 : 0.0;
}

float cubeShadow(int i, vec3 P) {
    vec3  d       = P - lights[i].position;
    float current = length(d) / lights[i].far;
    if (current > 1.0) {
        return 0.0;
    }
    float closest = texture(shadowCubes[i], d).r;
    return current - shadowBias > closest ? 1.0 : 0.0;
}

// ── PBR helpers (Cook-Torrance BRDF) ─────────────────────────────────────────

float DistributionGGX(vec3 N, vec3 H, float roughness) {
    float a   = roughness * roughness;
    float a2  = a * a;
    float NdH = max(dot(N, H), 0.0);
    float d   = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

float GeometrySmith(float NdV, float NdL, float roughness) {
    return GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 FresnelSchlickRoughness(float cosTheta, vec3 F0, float roughness) {
    return F0 + (max(vec3(1.0 - roughness), F0) - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

// ── Main ─────────────────────────────────────────────────────────────────────

void main() {
    vec3 N = texture(gNormal, fragUV).rgb;
    if (dot(N, N) < 0.25) {
        outColor = vec4(0.0);
        return;
    }
    N = normalize(N);

    vec4  pos       = texture(gPosition, fragUV);
    vec3  P         = pos.xyz;
    float ao        = pos.w;
    vec3  albedo    = texture(gAlbedo, fragUV).rgb;
    vec3  emission  = texture(gEmission, fragUV).rgb;
    float roughness = texture(gRoughness, fragUV).r;
    float metallic  = texture(gMetallic, fragUV).r;

    vec3  V   = normalize(cameraPos - P);
    vec3  R   = reflect(-V, N);
    float NdV = max(dot(N, V), 0.0);
    vec3  F0  = mix(vec3(0.04), albedo, metallic);

    vec3 Lo = vec3(0.0);
    for (int i = 0; i < lightCount; ++i) {
        vec3  L;
        float attenuation = 1.0;
        float shadow      = 0.0;
        if (lights[i].type == DIRECTIONAL) {
            L      = normalize(-lights[i].direction);
            shadow = planarShadow(i, P);
        } else {
            vec3  toLight = lights[i].position - P;
            float dist    = length(toLight);
            L           = toLight / dist;
            attenuation = 1.0 / (dist * dist);
            if (lights[i].type == SPOT) {
                attenuation *= step(lights[i].cutOff, dot(L, normalize(-lights[i].direction)));
                shadow       = planarShadow(i, P);
            } else {
                shadow = cubeShadow(i, P);
            }
        }

        float NdL = max(dot(N, L), 0.0);
        if (NdL <= 0.0 || attenuation <= 0.0) {
            continue;
        }
        vec3 H   = normalize(V + L);
        vec3 rad = lights[i].color * attenuation;

        float D = DistributionGGX(N, H, roughness);
        float G = GeometrySmith(NdV, NdL, roughness);
        vec3  F = FresnelSchlick(max(dot(H, V), 0.0), F0);

        vec3 kD       = (vec3(1.0) - F) * (1.0 - metallic);
        vec3 specular = D * G * F / max(4.0 * NdV * NdL, 0.001);
        Lo += (kD * albedo / PI + specular) * rad * NdL * (1.0 - shadow);
    }

    vec3 F  = FresnelSchlickRoughness(NdV, F0, roughness);
    vec3 kD = (vec3(1.0) - F) * (1.0 - metallic);

    vec3 diffuse     = texture(irradianceMap, N).rgb * albedo;
    vec3 prefiltered = textureLod(prefilterMap, R, roughness * prefilterLevels).rgb;
    vec2 brdf        = texture(brdfLUT, vec2(NdV, roughness)).rg;
    vec3 specular    = prefiltered * (F * brdf.x + brdf.y);
    vec3 ambient     = (kD * diffuse + specular) * ao;

    outColor = vec4(ambient + Lo + emission, 1.0);
}
`

// ── Post-processing ──────────────────────────────────────────────────────────

// clampFragSrc keeps pixels whose luminance lies in [minLuminance, maxLuminance].
const clampFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D source;
uniform float     minLuminance;
uniform float     maxLuminance;

void main() {
    vec3  color = texture(source, fragUV).rgb;
    float luma  = dot(color, vec3(0.2126, 0.7152, 0.0722));
    float keep  = step(minLuminance, luma) * step(luma, maxLuminance);
    outColor = vec4(color * keep, 1.0);
}
`

// blurFragSrc is a single-axis 9-tap Gaussian.
const blurFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D source;
uniform int       horizontal;

const float weight[5] = float[](0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216);

void main() {
    vec2 texel = 1.0 / vec2(textureSize(source, 0));
    vec2 dir   = horizontal == 1 ? vec2(texel.x, 0.0) : vec2(0.0, texel.y);
    vec3 result = texture(source, fragUV).rgb * weight[0];
    for (int i = 1; i < 5; ++i) {
        result += texture(source, fragUV + dir * float(i)).rgb * weight[i];
        result += texture(source, fragUV - dir * float(i)).rgb * weight[i];
    }
    outColor = vec4(result, 1.0);
}
`

const addFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D first;
uniform sampler2D second;

void main() {
    outColor = vec4(texture(first, fragUV).rgb + texture(second, fragUV).rgb, 1.0);
}
`

// tonemapFragSrc applies exposure, exponential tone mapping and gamma.
const tonemapFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D source;
uniform float     exposure;
uniform float     gamma;

void main() {
    vec3 hdr    = texture(source, fragUV).rgb;
    vec3 mapped = vec3(1.0) - exp(-hdr * exp2(exposure));
    mapped = pow(mapped, vec3(1.0 / gamma));
    outColor = vec4(mapped, 1.0);
}
`

// ── Skybox ───────────────────────────────────────────────────────────────────

// skyboxVertSrc drops the view translation and pins depth to the far plane.
const skyboxVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 view;
uniform mat4 projection;
out vec3 localPos;
void main() {
    localPos    = aPos;
    vec4 pos    = projection * mat4(mat3(view)) * vec4(aPos, 1.0);
    gl_Position = pos.xyww;
}
`

const skyboxFragSrc = `
#version 410 core
in  vec3 localPos;
out vec4 outColor;
uniform samplerCube environment;
void main() {
    outColor = vec4(texture(environment, localPos).rgb, 1.0);
}
`
