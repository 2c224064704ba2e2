package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// UpdateGoldenFilesEnv is the environment variable used to indicate go test that
// the golden files should be overwritten with the current test results.
const UpdateGoldenFilesEnv = `TESTS_UPDATE_GOLDEN`

var update = os.Getenv(UpdateGoldenFilesEnv) != ""

// LoadWithUpdateFromGolden loads the element from a plaintext golden file.
// It will update the file if the update flag is used prior to loading it.
func LoadWithUpdateFromGolden(t *testing.T, data string) string {
	t.Helper()

	goldenPath := GoldenPath(t)

	if update {
		t.Logf("updating golden file %s", goldenPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0750), "Cannot create directory for updating golden files")
		require.NoError(t, os.WriteFile(goldenPath, []byte(data), 0600), "Cannot write golden file")
	}

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "Cannot load golden file")

	return string(want)
}

// LoadWithUpdateFromGoldenYAML load the generic element from a YAML serialized golden file.
// It will update the file if the update flag is used prior to deserializing it.
func LoadWithUpdateFromGoldenYAML[E any](t *testing.T, got E) E {
	t.Helper()

	data, err := yaml.Marshal(got)
	require.NoError(t, err, "Cannot serialize provided object")
	want := LoadWithUpdateFromGolden(t, string(data))

	var wantDeserialized E
	err = yaml.Unmarshal([]byte(want), &wantDeserialized)
	require.NoError(t, err, "Cannot deserialize golden file")

	return wantDeserialized
}

// GoldenPath returns the golden path for the provided test.
func GoldenPath(t *testing.T) string {
	t.Helper()

	// Ensures that only the name of the parent test is used.
	super, sub, found := strings.Cut(t.Name(), "/")
	path := filepath.Join("testdata", super, "golden")
	if found {
		path = filepath.Join(path, strings.ToLower(strings.ReplaceAll(sub, ":", "")))
	}

	return path
}
