package rainglare

import (
	"fmt"

	"github.com/google/uuid"
)

type AssetId string

// AssetServer holds shader listings by id. Pipelines reference shaders by
// handle instead of carrying WGSL source around.
type AssetServer struct {
	shaders map[AssetId]ShaderAsset
}

type AssetServerModule struct{}

type Shader struct {
	assetId AssetId
}

type ShaderAsset struct {
	version uint
	name    string
	listing string
}

func (server AssetServer) LoadShader(name string, listing string) Shader {
	id := makeAssetId()

	server.shaders[id] = ShaderAsset{
		version: 0,
		name:    name,
		listing: listing,
	}

	return Shader{
		assetId: id,
	}
}

func (server AssetServer) shaderAsset(shader Shader) ShaderAsset {
	asset, ok := server.shaders[shader.assetId]
	if !ok {
		panic(fmt.Errorf("unknown shader asset: %s", shader.assetId))
	}
	return asset
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(&AssetServer{
		shaders: make(map[AssetId]ShaderAsset),
	})
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
