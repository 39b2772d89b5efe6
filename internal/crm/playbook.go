package crm

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed playbook.yaml
var playbookYAML []byte

// playbook holds the per-stage manager guidance, keyed by stage. Loaded once
// from the embedded YAML document; a malformed or incomplete document is a
// packaging error, so loading failures panic at init.
var playbook = mustLoadPlaybook(playbookYAML)

func mustLoadPlaybook(raw []byte) map[Stage]string {
	var byCode map[string]string
	if err := yaml.Unmarshal(raw, &byCode); err != nil {
		panic(fmt.Sprintf("crm: invalid playbook: %v", err))
	}

	out := make(map[Stage]string, len(byCode))
	for code, text := range byCode {
		stage, err := ParseStage(code)
		if err != nil {
			panic(fmt.Sprintf("crm: invalid playbook: %v", err))
		}
		out[stage] = text
	}
	for _, stage := range Stages {
		if _, ok := out[stage]; !ok {
			panic(fmt.Sprintf("crm: playbook missing stage %s", stage))
		}
	}
	return out
}

// Instruction returns the playbook text for the stage. Purely informational;
// no decision depends on it.
func (e *Engine) Instruction(s Stage) string {
	return playbook[s]
}
