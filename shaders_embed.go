package rainglare

import _ "embed"

//go:embed shaders/scene.wgsl
var sceneShaderSource string

//go:embed shaders/tonemap.wgsl
var tonemapShaderSource string

//go:embed shaders/rain_glare.wgsl
var rainGlareShaderSource string

//go:embed shaders/composite.wgsl
var compositeShaderSource string
