package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRawPatterns(t *testing.T) {
	tf := DefaultRawPatterns("terraform")
	require.NotNil(t, tf)
	assert.Equal(t, []string{"Terraform will perform the following actions:"}, tf.PlanHeaders)

	tofu := DefaultRawPatterns("tofu")
	require.NotNil(t, tofu)
	assert.Equal(t, []string{"OpenTofu will perform the following actions:"}, tofu.PlanHeaders)

	assert.Nil(t, DefaultRawPatterns("pulumi"))
}

func TestCompileDefaults(t *testing.T) {
	p := MustCompileDefaults("terraform")

	assert.True(t, p.Prompt.Match("  Enter a value: "))
	assert.True(t, p.PlanHeader.Match("\x1b[1mTerraform will perform the following actions:\x1b[0m\n"))
	assert.True(t, p.PlanEnd.Match("Plan: 1 to add, 0 to change, 0 to destroy."))
	assert.True(t, p.LockHeader.Match("Lock Info:\n"))
	assert.True(t, p.JSONStart.Match(`      policy: "{\"Version\": \"2012-10-17\"}" => "{}"`))
	assert.True(t, p.JSONEnd.Match(`      policy: "{\"a\":1}" => "{\"a\":2}"`))
	assert.True(t, p.JSONEnd.Match(`  ]\n" (forces new resource)`))
	assert.False(t, p.JSONEnd.Match(`      policy: "{`))
	assert.True(t, p.Separator.Match("-----"))
	assert.False(t, p.Separator.Match("  - destroy"))

	id, ok := p.LockID.Extract("│   ID:        ab12-cd34")
	require.True(t, ok)
	assert.Equal(t, "ab12-cd34", id)
}

func TestMustCompileDefaultsUnknownToolFallsBack(t *testing.T) {
	p := MustCompileDefaults("pulumi")
	assert.True(t, p.PlanHeader.Match("Terraform will perform the following actions:"))
}

func TestCompilePatternsSkipsInvalidRegex(t *testing.T) {
	p, err := CompilePatterns(&RawPatterns{
		LockID: []string{"re:([", `re:^ID: (\S+)$`},
	})
	require.NoError(t, err)
	assert.Len(t, p.LockID, 1)
}

func TestCompilePatternsNil(t *testing.T) {
	_, err := CompilePatterns(nil)
	assert.Error(t, err)
}

func TestMergeRawPatterns(t *testing.T) {
	defaults := DefaultRawPatterns("terraform")
	overrides := &RawPatterns{PromptPhrases: []string{"Enter a value please:"}}
	extras := &RawPatterns{PlanHeaders: []string{"Terragrunt will perform the following actions:"}}

	merged := MergeRawPatterns(defaults, overrides, extras)

	assert.Equal(t, []string{"Enter a value please:"}, merged.PromptPhrases)
	assert.Equal(t, []string{
		"Terraform will perform the following actions:",
		"Terragrunt will perform the following actions:",
	}, merged.PlanHeaders)
	assert.Equal(t, defaults.LockID, merged.LockID)

	// defaults untouched
	assert.Equal(t, []string{"Enter a value:"}, defaults.PromptPhrases)
}

func TestMergeRawPatternsEmptyOverrideClears(t *testing.T) {
	merged := MergeRawPatterns(DefaultRawPatterns("terraform"), &RawPatterns{PromptPhrases: []string{}}, nil)
	assert.Empty(t, merged.PromptPhrases)
	assert.NotNil(t, merged.PromptPhrases)
}
