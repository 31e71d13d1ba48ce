package data

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileEmbedding(t *testing.T) {
	_, err := dataFilesRoot.ReadFile("data-files/README.md")
	assert.NoError(t, err)

	files, err := dataFilesRoot.ReadDir("data-files/scenarios")
	require.NoError(t, err)
	assert.NotEqual(t, 0, len(files))
}

func TestLoadSingle(t *testing.T) {
	var catalog struct {
		Categories []string `json:"categories"`
		Origins    []string `json:"origins"`
	}
	require.NoError(t, LoadSingle("catalog.yaml", &catalog))
	assert.Equal(t, []string{"vegetables", "fruits", "dairy", "herbs"}, catalog.Categories)
	assert.Len(t, catalog.Origins, 12)
}

func TestLoadSingleRejectsParameterizedFile(t *testing.T) {
	var target interface{}
	err := LoadSingle("scenarios/usuarios-missing-fields.yaml", &target)
	assert.Error(t, err)
}

func TestLoadDataFileExpandsConstants(t *testing.T) {
	sources, err := LoadDataFile("carrito.yaml")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "carrito.yaml", sources[0].BaseName)

	var fixtures struct {
		InvalidCarritoID string `json:"invalidCarritoID"`
	}
	require.NoError(t, sources[0].ParseInto(&fixtures))
	assert.Equal(t, "999999", fixtures.InvalidCarritoID)
}

func TestLoadParameterizedScenario(t *testing.T) {
	sources, err := LoadDataFile("scenarios/productos-error-responses.yaml")
	require.NoError(t, err)
	require.Len(t, sources, 4)

	var scenario struct {
		Name             string `json:"name"`
		ExpectStatus     int    `json:"expectStatus"`
		MinMessageLength int    `json:"minMessageLength"`
	}
	require.NoError(t, sources[1].ParseInto(&scenario))
	assert.Equal(t, "wrong_types", scenario.Name)
	assert.Equal(t, 400, scenario.ExpectStatus)
	assert.Equal(t, 10, scenario.MinMessageLength)
	assert.Equal(t, "(SCENARIO=wrong_types,STATUS=400)", sources[1].ParamsString())
}

func TestLoadAllDataFiles(t *testing.T) {
	sources, err := LoadAllDataFiles("scenarios")
	require.NoError(t, err)
	// 4 error responses + 3 invalid requests + 4 missing fields
	assert.Len(t, sources, 11)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadDataFile("nope.yaml")
	assert.Error(t, err)
}

func TestParamsStringIsEmptyWithoutParams(t *testing.T) {
	assert.Equal(t, "", SourceInfo{}.ParamsString())
	assert.Equal(t, `(A=[1,2])`, SourceInfo{Params: map[string]ldvalue.Value{
		"A": ldvalue.ArrayOf(ldvalue.Int(1), ldvalue.Int(2)),
	}}.ParamsString())
}
