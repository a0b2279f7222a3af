package categorize

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-categorizer/cmd/root"
	"fjacquet/stmt-categorizer/internal/categorizer"
	"fjacquet/stmt-categorizer/internal/container"
	"fjacquet/stmt-categorizer/internal/events"
)

func setup(t *testing.T, ai categorizer.AIClient) (*container.Container, *bytes.Buffer) {
	t.Helper()
	c, err := container.NewContainerWithOverrides(context.Background(), container.LocalConfig(t.TempDir()),
		container.Overrides{AIClient: ai, Publisher: events.NoopPublisher{}})
	require.NoError(t, err)
	root.SetContainer(c)
	t.Cleanup(func() {
		root.Shutdown()
		description, confirm, categoryID, pattern = "", false, "", ""
	})

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetContext(context.Background())
	return c, &out
}

func TestCategorizeCommand_Flags(t *testing.T) {
	descFlag := Cmd.Flags().Lookup("description")
	require.NotNil(t, descFlag)
	assert.Equal(t, "d", descFlag.Shorthand)
	assert.Contains(t, descFlag.Usage, "description")

	confirmFlag := Cmd.Flags().Lookup("confirm")
	require.NotNil(t, confirmFlag)
	assert.Equal(t, "false", confirmFlag.DefValue)

	assert.NotNil(t, Cmd.Flags().Lookup("category"))
	assert.NotNil(t, Cmd.Flags().Lookup("pattern"))
}

func TestCategorize_UsesAI(t *testing.T) {
	ai := &categorizer.MockAIClient{Response: "leisure."}
	_, out := setup(t, ai)
	description = "ABONNEMENT ZENTRIX"

	require.NoError(t, Cmd.RunE(Cmd, nil))
	assert.Contains(t, out.String(), "(LEISURE)")
	assert.Contains(t, out.String(), "Source: AI")
	assert.Equal(t, 1, ai.CallCount())
}

func TestCategorize_ConfirmThenPatternHit(t *testing.T) {
	ai := &categorizer.MockAIClient{Response: "OTHER"}
	c, out := setup(t, ai)

	description, confirm, categoryID, pattern = "PRLV ATELIER NOVA 0424", true, "SERVICES", "ATELIER NOVA"
	require.NoError(t, Cmd.RunE(Cmd, nil))
	assert.Contains(t, out.String(), `Pattern "ATELIER NOVA" -> SERVICES saved`)
	require.Len(t, c.GetPatterns().List(), 1)

	out.Reset()
	description, confirm = "PRLV ATELIER NOVA 0524", false
	require.NoError(t, Cmd.RunE(Cmd, nil))
	assert.Contains(t, out.String(), "Source: Pattern")
	assert.Equal(t, 0, ai.CallCount())
}

func TestCategorize_ConfirmErrors(t *testing.T) {
	_, _ = setup(t, nil)

	description, confirm = "PRLV ATELIER NOVA", true
	assert.EqualError(t, Cmd.RunE(Cmd, nil), "--category is required with --confirm")

	categoryID, pattern = "SERVICES", "SOMETHING ELSE"
	assert.ErrorIs(t, Cmd.RunE(Cmd, nil), categorizer.ErrPatternNotInDescription)
}

func TestCategorize_NoAIClient(t *testing.T) {
	_, _ = setup(t, nil)
	description = "ABONNEMENT ZENTRIX"
	assert.Error(t, Cmd.RunE(Cmd, nil))
}
