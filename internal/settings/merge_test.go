package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_backend/internal/models"
	"chat_backend/internal/utils"
)

type failingKeys struct{}

func (failingKeys) Encrypt(string) (string, error) { return "", errors.New("kms down") }
func (failingKeys) Decrypt(string) (string, error) { return "", errors.New("kms down") }

func TestMergeSecret(t *testing.T) {
	tests := []struct {
		name   string
		prev   string
		newKey *string
		want   string
	}{
		{"absent keeps previous", "enc:old", nil, "enc:old"},
		{"present replaces", "enc:old", utils.StringPtr("new"), "enc:new"},
		{"blank clears", "enc:old", utils.StringPtr("   "), ""},
		{"absent on empty stays empty", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeSecret(tt.prev, tt.newKey, fakeKeys{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeSecret_EncryptFailure(t *testing.T) {
	_, err := mergeSecret("enc:old", utils.StringPtr("new"), failingKeys{})
	assert.Error(t, err)

	got, err := mergeSecret("enc:old", nil, failingKeys{})
	require.NoError(t, err)
	assert.Equal(t, "enc:old", got)
}

func TestMergeCustomProvider(t *testing.T) {
	prev := models.CustomProviderCredential{
		ProviderCredential: models.ProviderCredential{Enabled: true, EncryptedKey: "enc:k"},
		Name:               "Ollama",
		Endpoint:           "http://localhost:11434/v1",
	}

	got, err := mergeCustomProvider("local", prev, CustomProviderUpdate{Endpoint: utils.StringPtr(" http://gpu:11434/v1 ")}, fakeKeys{})
	require.NoError(t, err)
	assert.Equal(t, models.CustomProviderCredential{
		ProviderCredential: models.ProviderCredential{Enabled: true, EncryptedKey: "enc:k"},
		Name:               "Ollama",
		Endpoint:           "http://gpu:11434/v1",
	}, got)

	got, err = mergeCustomProvider("local", models.CustomProviderCredential{}, CustomProviderUpdate{}, fakeKeys{})
	require.NoError(t, err)
	assert.Equal(t, "local", got.Name)
	assert.False(t, got.Enabled)
}

func TestMergeGeneralProvider_FieldApplicability(t *testing.T) {
	tests := []struct {
		id      models.GeneralProviderID
		upd     GeneralProviderUpdate
		wantErr bool
	}{
		{models.Brave, GeneralProviderUpdate{Country: utils.StringPtr("US"), SearchLang: utils.StringPtr("en"), Safesearch: utils.StringPtr("strict")}, false},
		{models.Serper, GeneralProviderUpdate{Country: utils.StringPtr("us"), Language: utils.StringPtr("en")}, false},
		{models.Serper, GeneralProviderUpdate{SearchLang: utils.StringPtr("en")}, true},
		{models.Brave, GeneralProviderUpdate{Language: utils.StringPtr("en")}, true},
		{models.Firecrawl, GeneralProviderUpdate{Country: utils.StringPtr("US")}, true},
		{models.Firecrawl, GeneralProviderUpdate{Enabled: utils.BoolPtr(true)}, false},
	}

	for _, tt := range tests {
		_, err := mergeGeneralProvider(tt.id, models.GeneralProviderConfig{}, tt.upd, fakeKeys{})
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrValidation, string(tt.id))
		} else {
			assert.NoError(t, err, string(tt.id))
		}
	}
}

func TestNormalizeThemes(t *testing.T) {
	got := normalizeThemes([]string{" https://a ", "https://b", "https://a", ""})
	assert.Equal(t, []string{"https://a", "https://b"}, got)
}

func TestNormalizeCustomModel(t *testing.T) {
	m := normalizeCustomModel("llama3", models.CustomModel{ProviderID: " local "})
	assert.Equal(t, "llama3", m.ModelID)
	assert.Equal(t, "local", m.ProviderID)
}

func TestValidateCustomProviderID(t *testing.T) {
	for _, id := range []string{"openai", "openrouter", "i3-openai", "i3-custom", "", "a:b"} {
		assert.ErrorIs(t, validateCustomProviderID(id), ErrValidation, id)
	}
	for _, id := range []string{"local", "my-vllm"} {
		assert.NoError(t, validateCustomProviderID(id), id)
	}
}
