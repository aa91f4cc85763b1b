package messaging

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRender_ReplacesEveryOccurrence(t *testing.T) {
	body := "Hi {{customer_name}}, order #{{order_id}} is ready. Thanks {{customer_name}}!"
	res := Render(body, Vars{"customer_name": "Asha", "order_id": 42})

	assert.Equal(t, "Hi Asha, order #42 is ready. Thanks Asha!", res.Text)
	assert.Empty(t, res.Missing)
	assert.NotContains(t, res.Text, "{{")
}

func TestRender_IsDeterministic(t *testing.T) {
	body := "{{a}}-{{b}}-{{c}}-{{a}}"
	vars := Vars{"a": "x", "b": 2, "c": decimal.RequireFromString("3.50")}

	first := Render(body, vars)
	second := Render(body, vars)
	assert.Equal(t, first, second)
	assert.Equal(t, "x-2-3.5-x", first.Text)
}

func TestRender_ZeroIsNotBlank(t *testing.T) {
	body := "Balance: {{balance}} / {{count}} / {{ratio}}"
	res := Render(body, Vars{"balance": decimal.Zero, "count": 0, "ratio": 0.0})

	assert.Equal(t, "Balance: 0 / 0 / 0", res.Text)
}

func TestRender_UnsetAndAbsentValuesRenderEmpty(t *testing.T) {
	var unset *string
	res := Render("[{{nil}}][{{ptr}}][{{empty}}][{{absent}}][{{absent}}][{{also_absent}}]", Vars{
		"nil":   nil,
		"ptr":   unset,
		"empty": "",
	})

	assert.Equal(t, "[][][][][][]", res.Text)
	assert.Equal(t, []string{"absent", "also_absent"}, res.Missing)
}

func TestRender_DoesNotRescanValues(t *testing.T) {
	res := Render("{{a}}", Vars{"a": "{{b}}", "b": "boom"})
	assert.Equal(t, "{{b}}", res.Text)
}

func TestRender_TokensAreLiteral(t *testing.T) {
	res := Render("{{ name }} and {{name}}", Vars{"name": "Asha"})
	assert.Equal(t, " and Asha", res.Text)
	assert.Equal(t, []string{" name "}, res.Missing)
}

func TestRender_NoEscaping(t *testing.T) {
	res := Render("{{v}}", Vars{"v": "<b>&amp; 100%</b>"})
	assert.Equal(t, "<b>&amp; 100%</b>", res.Text)
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("{{b}} {{a}} {{b}} {not} {{c}}")
	assert.Equal(t, []string{"b", "a", "c"}, keys)
	assert.Empty(t, Placeholders(strings.Repeat("plain ", 3)))
}
