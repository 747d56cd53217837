package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdauwidhwa/NMCL/fetcher"
)

// testMeta serves a catalog with named versions and a fabric profile
// endpoint from in-memory JSON documents.
type testMeta struct {
	versions map[string]string // id -> manifest JSON
	profiles map[string]string // vanilla/loader -> profile JSON
}

func (tm *testMeta) start(t *testing.T) (*Resolver, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/mc/game/version_manifest_v2.json", func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			ID   string `json:"id"`
			Type string `json:"type"`
			URL  string `json:"url"`
		}
		var vv []entry
		for id := range tm.versions {
			vv = append(vv, entry{ID: id, Type: "release", URL: srv.URL + "/versions/" + id + ".json"})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"versions": vv})
	})
	mux.HandleFunc("/versions/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/versions/") : len(r.URL.Path)-len(".json")]
		body, ok := tm.versions[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/v2/versions/loader/", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path[len("/v2/versions/loader/"):]
		body, ok := tm.profiles[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})

	r := &Resolver{
		Client:     &fetcher.Client{Queue: fetcher.NewQueue(fetcher.DefaultLimit)},
		CatalogURL: srv.URL + "/mc/game/version_manifest_v2.json",
		LoaderBase: srv.URL,
	}
	return r, srv
}

func TestCompose_VanillaNoInheritance(t *testing.T) {
	tm := &testMeta{versions: map[string]string{
		"1.20.1": `{"id": "1.20.1", "type": "release", "mainClass": "Main", "libraries": [{"name": "a:b:1"}]}`,
	}}
	r, _ := tm.start(t)

	merged, patches, err := r.Compose(context.Background(), Spec{Vanilla: "1.20.1"})
	require.NoError(t, err)

	require.Len(t, patches, 1)
	assert.Equal(t, patches[0], merged, "single-element chain merges to the fetched descriptor")
	assert.Equal(t, "1.20.1", merged["id"])
}

func TestCompose_NotFound(t *testing.T) {
	tm := &testMeta{versions: map[string]string{}}
	r, _ := tm.start(t)

	_, _, err := r.Compose(context.Background(), Spec{Vanilla: "9.99"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompose_InheritanceChainMerges(t *testing.T) {
	tm := &testMeta{
		versions: map[string]string{
			"1.20.1": `{"id": "1.20.1", "type": "release", "mainClass": "VanillaMain",
				"libraries": [{"name": "base:lib:1"}],
				"arguments": {"jvm": ["-base"]}}`,
		},
		profiles: map[string]string{
			"1.20.1/0.15.0/profile/json": `{"id": "fabric-1.20.1", "inheritsFrom": "1.20.1",
				"mainClass": "FabricMain",
				"libraries": [{"name": "org.x:artifact:1.0", "url": "https://repo/"}],
				"arguments": {"jvm": ["-over"]}}`,
		},
	}
	r, _ := tm.start(t)

	merged, patches, err := r.Compose(context.Background(), Spec{
		Vanilla: "1.20.1", LoaderType: "fabric", LoaderVersion: "0.15.0",
	})
	require.NoError(t, err)

	require.Len(t, patches, 2, "leaf first, then inherited parent")
	assert.Equal(t, "fabric-1.20.1", patches[0]["id"])
	assert.Equal(t, "1.20.1", patches[1]["id"])

	assert.Equal(t, "FabricMain", merged["mainClass"])
	assert.NotContains(t, merged, "inheritsFrom", "resolved manifest is fully flattened")

	libs := merged["libraries"].([]interface{})
	require.Len(t, libs, 2)
	assert.Equal(t, "base:lib:1", libs[0].(map[string]interface{})["name"])

	args := merged["arguments"].(map[string]interface{})
	assert.Equal(t, []interface{}{"-base", "-over"}, args["jvm"])
}

func TestCompose_LoaderLibraryNormalization(t *testing.T) {
	tm := &testMeta{
		profiles: map[string]string{
			"1.20.1/0.15.0/profile/json": `{"id": "fabric-1.20.1",
				"libraries": [{"name": "org.x:artifact:1.0", "url": "https://repo/"}]}`,
		},
	}
	r, _ := tm.start(t)

	merged, _, err := r.Compose(context.Background(), Spec{
		Vanilla: "1.20.1", LoaderType: "fabric", LoaderVersion: "0.15.0",
	})
	require.NoError(t, err)

	m, err := Decode(merged)
	require.NoError(t, err)
	require.Len(t, m.Libraries, 1)
	require.NotNil(t, m.Libraries[0].Downloads)
	art := m.Libraries[0].Downloads.Artifact
	require.NotNil(t, art)
	assert.Equal(t, "org/x/artifact/1.0/artifact-1.0.jar", art.Path)
	assert.Equal(t, "https://repo/org/x/artifact/1.0/artifact-1.0.jar", art.URL)
}

func TestCompose_UnrecognizedLibraryFormat(t *testing.T) {
	tm := &testMeta{
		profiles: map[string]string{
			"1.20.1/0.15.0/profile/json": `{"id": "fabric-1.20.1",
				"libraries": [{"name": "only-a-name"}]}`,
		},
	}
	r, _ := tm.start(t)

	_, _, err := r.Compose(context.Background(), Spec{
		Vanilla: "1.20.1", LoaderType: "fabric", LoaderVersion: "0.15.0",
	})
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestCompose_CyclicChainBounded(t *testing.T) {
	tm := &testMeta{versions: map[string]string{
		"a": `{"id": "a", "inheritsFrom": "b"}`,
		"b": `{"id": "b", "inheritsFrom": "a"}`,
	}}
	r, _ := tm.start(t)

	_, _, err := r.Compose(context.Background(), Spec{Vanilla: "a"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "inheritance chain")
}

func TestListLoaders(t *testing.T) {
	tm := &testMeta{profiles: map[string]string{
		"1.20.1": `[{"loader": {"version": "0.15.0", "stable": true}},
			{"loader": {"version": "0.16.0-beta", "stable": false}}]`,
	}}
	r, _ := tm.start(t)

	list, err := r.ListLoaders(context.Background(), "1.20.1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0.15.0", list[0].Loader.Version)
	assert.True(t, list[0].Loader.Stable)
}

func TestCompose_InvalidSpec(t *testing.T) {
	tm := &testMeta{}
	r, _ := tm.start(t)

	for _, spec := range []Spec{
		{},
		{Vanilla: "1.20.1", LoaderType: "forge", LoaderVersion: "1"},
		{Vanilla: "1.20.1", LoaderType: "fabric"},
	} {
		_, _, err := r.Compose(context.Background(), spec)
		assert.Error(t, err, fmt.Sprintf("%+v", spec))
	}
}
