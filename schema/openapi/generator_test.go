package openapi

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-xref"
)

type stage struct {
	ID    xref.ID[stage]   `xref:"id,new,track"`
	Label xref.Name[stage] `xref:"label"`
	Steps []step           `xref:"steps"`
}

func (stage) IdentifierScope() xref.Key { return xref.RootKey }

type step struct {
	ID      xref.ID[step]  `xref:"id,new"`
	Timeout time.Duration  `xref:"timeout"`
	Next    *xref.ID[step] `xref:"next"`
}

func (step) IdentifierScope() xref.Key { return xref.KeyOf[stage]() }

type pipeline struct {
	Stages []stage                   `xref:"stages"`
	Entry  xref.ID[stage]            `xref:"entry,import=step"`
	Start  xref.ID[step]             `xref:"start"`
	Labels map[string]string         `xref:"labels"`
	Extra  map[string]any            `xref:"extra,preserve"`
	Owner  string                    `xref:"owner" expr:"value ?? 'ops'"`
	Parent *pipeline                 `xref:"parent"`
	Alias  map[string]xref.ID[stage] `xref:"alias"`
}

func TestGenerateDocumentShape(t *testing.T) {
	doc, err := Generate(pipeline{}, WithInfo("Pipelines", "2.0.0", WithInfoDescription("pipeline files")))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Fatalf("expected default version, got %v", doc["openapi"])
	}
	info := doc["info"].(map[string]any)
	if info["title"] != "Pipelines" || info["version"] != "2.0.0" || info["description"] != "pipeline files" {
		t.Fatalf("unexpected info: %#v", info)
	}
	if doc["x-xref-root"] != "#/components/schemas/pipeline" {
		t.Fatalf("unexpected root reference: %v", doc["x-xref-root"])
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	for _, name := range []string{"pipeline", "stage", "step"} {
		if _, ok := schemas[name]; !ok {
			t.Fatalf("expected component %s, got %v", name, reflect.ValueOf(schemas).MapKeys())
		}
	}
	if _, err := json.Marshal(doc); err != nil {
		t.Fatalf("document must be JSON serialisable: %v", err)
	}
}

func TestGenerateAnnotatesHandles(t *testing.T) {
	doc, err := Generate(&pipeline{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)

	stageSchema := schemas["stage"].(map[string]any)
	props := stageSchema["properties"].(map[string]any)
	id := props["id"].(map[string]any)
	if id["type"] != "string" || id["x-xref-kind"] != "stage" || id["x-xref-role"] != "declare" || id["x-xref-tracked"] != true {
		t.Fatalf("unexpected declaring handle schema: %#v", id)
	}
	if _, ok := props["label"]; ok {
		t.Fatalf("name fields have no raw key: %#v", props)
	}
	if required := stageSchema["required"].([]string); len(required) != 1 || required[0] != "id" {
		t.Fatalf("expected id required, got %v", stageSchema["required"])
	}

	stepProps := schemas["step"].(map[string]any)["properties"].(map[string]any)
	if stepProps["id"].(map[string]any)["x-xref-scope"] != "stage" {
		t.Fatalf("expected scoped handle, got %#v", stepProps["id"])
	}
	if stepProps["timeout"].(map[string]any)["format"] != "duration" {
		t.Fatalf("expected duration format, got %#v", stepProps["timeout"])
	}
	if stepProps["next"].(map[string]any)["x-xref-role"] != "reference" {
		t.Fatalf("expected pointer handle to be a reference, got %#v", stepProps["next"])
	}

	root := schemas["pipeline"].(map[string]any)["properties"].(map[string]any)
	entry := root["entry"].(map[string]any)
	if imports, ok := entry["x-xref-imports"].([]string); !ok || len(imports) != 1 || imports[0] != "step" {
		t.Fatalf("expected imports annotation, got %#v", entry)
	}
	alias := root["alias"].(map[string]any)
	if alias["type"] != "object" || alias["additionalProperties"].(map[string]any)["x-xref-kind"] != "stage" {
		t.Fatalf("expected map of handles, got %#v", alias)
	}
	if len(root["extra"].(map[string]any)) != 0 {
		t.Fatalf("expected preserved field to accept anything, got %#v", root["extra"])
	}
	if root["owner"].(map[string]any)["x-xref-expr"] != "value ?? 'ops'" {
		t.Fatalf("expected expression annotation, got %#v", root["owner"])
	}
	parent := root["parent"].(map[string]any)
	if parent["$ref"] != "#/components/schemas/pipeline" {
		t.Fatalf("expected recursive reference, got %#v", parent)
	}
}

func TestGenerateRootComponentOverride(t *testing.T) {
	doc, err := NewGenerator(WithRootComponent("Pipeline Spec"), WithOpenAPIVersion("3.1.1")).Generate(pipeline{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc["x-xref-root"] != "#/components/schemas/Pipeline_Spec" || doc["openapi"] != "3.1.1" {
		t.Fatalf("unexpected document header: %v %v", doc["x-xref-root"], doc["openapi"])
	}
}

func TestGenerateRejectsNonStruct(t *testing.T) {
	if _, err := Generate(map[string]any{}); !errors.Is(err, ErrNotStruct) {
		t.Fatalf("expected ErrNotStruct, got %v", err)
	}
}
