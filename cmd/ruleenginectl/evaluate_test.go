package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCmd_BasicApproval(t *testing.T) {
	dir := t.TempDir()
	rulePath := filepath.Join(dir, "rule.yaml")
	writeFile(t, rulePath, `
name: Basic
inputs: [creditScore]
when: ["creditScore at_least 650"]
then: ["set decision to \"APPROVED\""]
else: ["set decision to \"DECLINED\""]
`)

	inputPath := filepath.Join(dir, "input.json")
	writeFile(t, inputPath, `{"creditScore": 700}`)

	configFile = ""
	require.NoError(t, os.Setenv("RULEENGINE_STORAGE_DATA_DIR", filepath.Join(dir, "store")))
	defer os.Unsetenv("RULEENGINE_STORAGE_DATA_DIR")

	cmd := newEvaluateCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{rulePath, "--input", inputPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "APPROVED")
}
