package form

import (
	"errors"
	"reflect"
	"testing"

	"github.com/RoyalIcing/datadown-preview/internal/document"
	"github.com/RoyalIcing/datadown-preview/internal/resolve"
)

const formSource = `# Preferences

## Query

### Name: text

Anonymous

### Mode: text

- dark #default
- light

### Count: number

5

### Tags: strings

- alpha
- beta

## Mutation

### Update

#### bump

- Count: 10

#### lighten

- Mode: light

#### paint

- Mode: blue
`

func buildModel(t *testing.T, history []string) *Model {
	t.Helper()
	resolved := resolve.Resolve(document.Parse(formSource), resolve.Config{})
	return Build(resolved, history)
}

func fieldByName(t *testing.T, m *Model, name string) Field {
	t.Helper()
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no field named %q in %+v", name, m.Fields)
	return Field{}
}

func TestBuild_BaseFields(t *testing.T) {
	m := buildModel(t, nil)
	if len(m.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(m.Fields))
	}

	name := fieldByName(t, m, "Name")
	if name.Kind != KindText || name.Value != Text("Anonymous") {
		t.Errorf("unexpected Name field: %+v", name)
	}

	mode := fieldByName(t, m, "Mode")
	if !reflect.DeepEqual(mode.Choices, []string{"dark", "light"}) {
		t.Errorf("unexpected choices: %v", mode.Choices)
	}
	if mode.Value != Text("dark") {
		t.Errorf("expected the #default choice, got %v", mode.Value)
	}
	if mode.Err != nil {
		t.Errorf("default choice must be legal: %v", mode.Err)
	}

	count := fieldByName(t, m, "Count")
	if count.Value != Number(5) {
		t.Errorf("expected count 5, got %v", count.Value)
	}

	tags := fieldByName(t, m, "Tags")
	if !reflect.DeepEqual(tags.Value, TextList{"alpha", "beta"}) {
		t.Errorf("unexpected tags: %v", tags.Value)
	}
}

func TestBuild_MutationNames(t *testing.T) {
	m := buildModel(t, nil)
	if !reflect.DeepEqual(m.Mutations, []string{"bump", "lighten", "paint"}) {
		t.Errorf("unexpected mutations: %v", m.Mutations)
	}
}

func TestBuild_HistoryFold(t *testing.T) {
	m := buildModel(t, []string{"bump"})
	if got := fieldByName(t, m, "Count").Value; got != Number(10) {
		t.Errorf("expected bumped count 10, got %v", got)
	}

	m = buildModel(t, []string{"bump", "lighten"})
	if got := fieldByName(t, m, "Mode").Value; got != Text("light") {
		t.Errorf("expected lightened mode, got %v", got)
	}
	if got := fieldByName(t, m, "Count").Value; got != Number(10) {
		t.Errorf("earlier overlay must persist, got %v", got)
	}
}

func TestBuild_AppendEqualsDirectFold(t *testing.T) {
	incremental := buildModel(t, []string{"bump", "lighten"})
	appended := buildModel(t, append(incremental.History, "paint"))
	direct := buildModel(t, []string{"bump", "lighten", "paint"})
	if !reflect.DeepEqual(appended, direct) {
		t.Error("folding [A,B] then appending C must equal folding [A,B,C]")
	}
}

func TestBuild_TruncationIsUndo(t *testing.T) {
	before := buildModel(t, []string{"bump", "lighten"})
	after := buildModel(t, []string{"bump", "lighten", "paint"})
	undone := buildModel(t, after.History[:2])
	if !reflect.DeepEqual(before, undone) {
		t.Error("truncating history must exactly reproduce the earlier model")
	}
}

func TestBuild_NotInChoices(t *testing.T) {
	m := buildModel(t, []string{"paint"})
	mode := fieldByName(t, m, "Mode")
	if mode.Value != Text("blue") {
		t.Fatalf("the value must not be silently corrected, got %v", mode.Value)
	}
	var notIn *NotInChoicesError
	if !errors.As(mode.Err, &notIn) {
		t.Fatalf("expected *NotInChoicesError, got %v", mode.Err)
	}
	if notIn.Value != "blue" || !reflect.DeepEqual(notIn.Choices, []string{"dark", "light"}) {
		t.Errorf("unexpected error detail: %+v", notIn)
	}
}

func TestBuild_NotInChoicesNumberField(t *testing.T) {
	source := `# Doc

## Query

### Level: number

- 1
- 2
- 3

## Mutation

### Update

#### overshoot

- Level: 9
`
	resolved := resolve.Resolve(document.Parse(source), resolve.Config{})

	base := Build(resolved, nil)
	level := fieldByName(t, base, "Level")
	if level.Value != Number(1) || level.Err != nil {
		t.Fatalf("unexpected base field: %+v", level)
	}

	m := Build(resolved, []string{"overshoot"})
	level = fieldByName(t, m, "Level")
	if level.Value != Number(9) {
		t.Fatalf("the value must not be silently corrected, got %v", level.Value)
	}
	var notIn *NotInChoicesError
	if !errors.As(level.Err, &notIn) {
		t.Fatalf("expected *NotInChoicesError, got %v", level.Err)
	}
	if notIn.Value != "9" || !reflect.DeepEqual(notIn.Choices, []string{"1", "2", "3"}) {
		t.Errorf("unexpected error detail: %+v", notIn)
	}
}

func TestBuild_InitialSectionValues(t *testing.T) {
	source := `# Doc

## Query

### Name: text

Anonymous

## Initial

- Name: Bob
`
	resolved := resolve.Resolve(document.Parse(source), resolve.Config{})
	m := Build(resolved, nil)
	if got := fieldByName(t, m, "Name").Value; got != Text("Bob") {
		t.Errorf("expected initial value Bob, got %v", got)
	}
}
