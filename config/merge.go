package config

import "maps"

// DeepMergeConfigs merges override on top of base with override-wins
// semantics. Modules with the same name have their config maps merged
// recursively; pipelines are replaced whole.
func DeepMergeConfigs(base, override *WorkflowConfig) *WorkflowConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := &WorkflowConfig{
		Name:        base.Name,
		Description: base.Description,
		Modules:     deepMergeModules(base.Modules, override.Modules),
		Pipelines:   maps.Clone(base.Pipelines),
	}
	if override.Name != "" {
		result.Name = override.Name
	}
	if override.Description != "" {
		result.Description = override.Description
	}
	if len(override.Pipelines) > 0 && result.Pipelines == nil {
		result.Pipelines = make(map[string]PipelineConfig, len(override.Pipelines))
	}
	maps.Copy(result.Pipelines, override.Pipelines)
	return result
}

func deepMergeModules(base, override []ModuleConfig) []ModuleConfig {
	if len(override) == 0 {
		return base
	}
	result := make([]ModuleConfig, len(base))
	copy(result, base)

	baseIdx := make(map[string]int)
	for i, m := range result {
		baseIdx[m.Name] = i
	}

	for _, om := range override {
		if idx, ok := baseIdx[om.Name]; ok {
			merged := result[idx]
			merged.Config = deepMergeMap(merged.Config, om.Config)
			if om.Type != "" {
				merged.Type = om.Type
			}
			if om.DependsOn != nil {
				merged.DependsOn = om.DependsOn
			}
			result[idx] = merged
		} else {
			result = append(result, om)
		}
	}
	return result
}

func deepMergeMap(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}
	result := make(map[string]any, len(base)+len(override))
	maps.Copy(result, base)
	for k, v := range override {
		if baseVal, exists := result[k]; exists {
			baseMap, baseIsMap := baseVal.(map[string]any)
			overMap, overIsMap := v.(map[string]any)
			if baseIsMap && overIsMap {
				result[k] = deepMergeMap(baseMap, overMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}
