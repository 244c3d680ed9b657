package modelcache_test

import (
	"context"
	"testing"
	"time"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	modelcache "github.com/mutablelogic/go-agent/pkg/modelcache"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

func makeModels(names ...string) []schema.Model {
	models := make([]schema.Model, len(names))
	for i, name := range names {
		models[i] = schema.Model{Name: name}
	}
	return models
}

func Test_modelcache_001(t *testing.T) {
	assert := assert.New(t)
	mc := modelcache.NewModelCache(time.Hour, 10)
	assert.NotNil(mc)

	// First call fetches, second is served from cache
	var fetches int
	fetch := func(_ context.Context, name string) (*schema.Model, error) {
		fetches++
		return &schema.Model{Name: name}, nil
	}

	model, err := mc.GetModel(context.TODO(), "gpt-4o", fetch)
	assert.NoError(err)
	assert.Equal("gpt-4o", model.Name)
	assert.Equal(1, fetches)

	_, err = mc.GetModel(context.TODO(), "gpt-4o", fetch)
	assert.NoError(err)
	assert.Equal(1, fetches)
}

func Test_modelcache_002(t *testing.T) {
	assert := assert.New(t)
	mc := modelcache.NewModelCache(time.Hour, 10)

	// A not-found error invalidates any cached entry
	_, err := mc.GetModel(context.TODO(), "gone", func(_ context.Context, name string) (*schema.Model, error) {
		return nil, agent.ErrNotFound.Withf("model not found: %q", name)
	})
	assert.ErrorIs(err, agent.ErrNotFound)
}

func Test_modelcache_003(t *testing.T) {
	assert := assert.New(t)
	mc := modelcache.NewModelCache(time.Hour, 10)

	var fetches int
	list := func(_ context.Context, _ ...opt.Opt) ([]schema.Model, error) {
		fetches++
		return makeModels("b-model", "a-model"), nil
	}

	// First call fetches and sorts, second is served from cache
	models, err := mc.ListModels(context.TODO(), nil, list)
	assert.NoError(err)
	assert.Len(models, 2)
	assert.Equal("a-model", models[0].Name)
	assert.Equal(1, fetches)

	models, err = mc.ListModels(context.TODO(), nil, list)
	assert.NoError(err)
	assert.Len(models, 2)
	assert.Equal(1, fetches)
}
