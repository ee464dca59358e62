package conststore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireflyframework/ruleenginectl/internal/conststore"
)

func TestDiskStore_PutAndRecover(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	err = store.PutConstant(conststore.Constant{
		Code:         "MIN_CREDIT_SCORE",
		CurrentValue: float64(650),
		ValueType:    "number",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, mockFS.WriteCalls)
	assert.Equal(t, 1, mockFS.RenameCalls)
	assert.True(t, mockFS.FileExists("/data/constants.json"))

	recovered, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered.CountConstants())

	c, ok := recovered.GetConstant("MIN_CREDIT_SCORE")
	require.True(t, ok)
	assert.Equal(t, json.Number("650"), c.CurrentValue)
}

func TestDiskStore_GetConstantsByCodes(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	require.NoError(t, store.PutConstant(conststore.Constant{Code: "MIN_SCORE", CurrentValue: float64(650)}))
	require.NoError(t, store.PutConstant(conststore.Constant{Code: "MAX_RATIO", CurrentValue: float64(0.4)}))

	out, err := store.GetConstantsByCodes(context.Background(), []string{"MIN_SCORE", "MAX_RATIO", "UNKNOWN_CODE"})
	require.NoError(t, err)

	assert.Equal(t, float64(650), out["MIN_SCORE"])
	assert.Equal(t, float64(0.4), out["MAX_RATIO"])
	assert.NotContains(t, out, "UNKNOWN_CODE")
}

func TestDiskStore_RuleDefinitionRoundTrip(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	require.NoError(t, store.PutRuleDefinition(conststore.RuleDef{
		Code:   "APPROVAL_V1",
		Name:   "Loan Approval",
		Source: "name: Loan Approval\ninputs: [creditScore]\n",
	}))

	recovered, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	def, ok := recovered.GetRuleDefinitionByCode("APPROVAL_V1")
	require.True(t, ok)
	assert.Equal(t, "Loan Approval", def.Name)
}

func TestDiskStore_UpdatePersistsLatestValue(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	require.NoError(t, store.PutConstant(conststore.Constant{Code: "MIN_SCORE", CurrentValue: float64(600)}))
	require.NoError(t, store.PutConstant(conststore.Constant{Code: "MIN_SCORE", CurrentValue: float64(650)}))

	data, exists := mockFS.GetFile("/data/constants.json")
	require.True(t, exists)

	var persisted map[string]conststore.Constant
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, float64(650), persisted["MIN_SCORE"].CurrentValue)
}

func TestDiskStore_AtomicWrite(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	require.NoError(t, store.PutConstant(conststore.Constant{Code: "MIN_SCORE", CurrentValue: float64(650)}))

	assert.False(t, mockFS.FileExists("/data/constants.json.tmp"))
	assert.True(t, mockFS.FileExists("/data/constants.json"))
}

func TestDiskStore_WriteFailure(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	mockFS.WriteError = fmt.Errorf("disk full")

	err = store.PutConstant(conststore.Constant{Code: "MIN_SCORE", CurrentValue: float64(650)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDiskStore_CorruptedFile(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	require.NoError(t, mockFS.WriteFile("/data/constants.json", []byte("not json"), 0644))

	_, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal constants")
}

func TestDiskStore_FreshStart(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)
	assert.Equal(t, 0, store.CountConstants())
}

func TestDiskStore_MissingCodeOmittedFromResult(t *testing.T) {
	mockFS := conststore.NewMockFileSystem()
	store, err := conststore.NewDiskStoreWithFS("/data", mockFS)
	require.NoError(t, err)

	out, err := store.GetConstantsByCodes(context.Background(), []string{"NOT_THERE"})
	require.NoError(t, err)
	assert.Empty(t, out)
}
